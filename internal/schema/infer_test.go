package schema

import (
	"errors"
	"testing"

	"github.com/yourorg/apidecl/internal/transform"
)

func TestInferObject(t *testing.T) {
	n, err := Infer([]byte(`{"code":0,"ratio":0.5,"ok":true,"msg":"hi","extra":null,"data":{"id":1}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := propNames(n); got != "code,ratio,ok,msg,extra,data" {
		t.Fatalf("unexpected order %s", got)
	}
	want := map[string]string{"code": "integer", "ratio": "number", "ok": "boolean", "msg": "string", "extra": "", "data": "object"}
	for name, typ := range want {
		if got := n.Property(name).Type; got != typ {
			t.Errorf("%s: type %q, want %q", name, got, typ)
		}
		if !n.IsRequired(name) {
			t.Errorf("%s should be required", name)
		}
	}
}

func TestInferArrayMergesElements(t *testing.T) {
	n, err := Infer([]byte(`[{"id":1,"name":"a"},{"id":2.5,"tag":"x"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if n.Type != "array" || n.Items == nil {
		t.Fatalf("expected array with items, got %+v", n)
	}
	items := n.Items
	if got := propNames(items); got != "id,name,tag" {
		t.Fatalf("unexpected merged properties %s", got)
	}
	if items.Property("id").Type != "number" {
		t.Fatalf("integer and number samples should widen to number")
	}
	if !items.IsRequired("id") || items.IsRequired("name") || items.IsRequired("tag") {
		t.Fatalf("unexpected required set %v", items.Required)
	}
}

func TestInferRendersDeclarations(t *testing.T) {
	n, err := Infer([]byte(`{"code":0,"data":{"list":[{"id":1}],"ids":[]}}`))
	if err != nil {
		t.Fatal(err)
	}
	got, err := transform.Transform(n, transform.Options{TopName: "Resp"})
	if err != nil {
		t.Fatal(err)
	}
	want := "interface List {\n  id: number\n}\ninterface Data {\n  list: List[]\n  ids: string[]\n}\ninterface Resp {\n  code: number\n  data: Data\n}"
	if got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestInferNullFirstElement(t *testing.T) {
	n, err := Infer([]byte(`[null, "a"]`))
	if err != nil {
		t.Fatal(err)
	}
	if n.Items.Type != "string" {
		t.Fatalf("expected string items, got %q", n.Items.Type)
	}
}

func TestInferErrors(t *testing.T) {
	if _, err := Infer(nil); !errors.Is(err, ErrEmptySchema) {
		t.Fatalf("expected ErrEmptySchema, got %v", err)
	}
	if _, err := Infer([]byte(`{"a":`)); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
	if _, err := Infer([]byte(`{"a":1} {"b":2}`)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for trailing data, got %v", err)
	}
}
