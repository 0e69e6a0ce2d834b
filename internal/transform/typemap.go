package transform

// Primitive keywords emitted by MapType.
const (
	KeywordString  = "string"
	KeywordNumber  = "number"
	KeywordBoolean = "boolean"
)

// MapType maps a schema primitive type name to an output keyword.
// Unknown and empty names map to "string".
func MapType(typeName string) string {
	switch typeName {
	case "string":
		return KeywordString
	case "integer", "number":
		return KeywordNumber
	case "boolean":
		return KeywordBoolean
	default:
		return KeywordString
	}
}
