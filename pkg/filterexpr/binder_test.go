package filterexpr

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

type wordParams struct {
	Language      string
	Word          *string
	WordPrefix    *string
	Words         []string
	Important     *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	OrderBy       []OrderTerm
}

var wordSchema = Schema{
	Fields: map[string]Field{
		"language": {Kind: KindString, Ops: map[Op]string{OpEQ: "Language"}},
		"word": {Kind: KindString, Ops: map[Op]string{
			OpEQ: "Word",
			OpSW: "WordPrefix",
			OpIN: "Words",
		}},
		"important": {Kind: KindBool, Ops: map[Op]string{OpEQ: "Important"}},
		"created_at": {Kind: KindTimestamp, Ops: map[Op]string{
			OpGTE: "CreatedAfter",
			OpLTE: "CreatedBefore",
		}},
	},
	Order: OrderSchema{
		Keys:     []string{"word", "created_at", "important"},
		Default:  []OrderTerm{{Key: "created_at", Desc: true}},
		Fallback: OrderTerm{Key: "word"},
	},
}

func TestBind_Conjunction(t *testing.T) {
	var params wordParams
	filter := `language == "lat" && word.startsWith("ma") && important && created_at >= timestamp("2024-01-01T00:00:00Z")`

	if err := Bind(filter, "", &params, wordSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if params.Language != "lat" {
		t.Fatalf("expected Language 'lat', got %q", params.Language)
	}
	if params.WordPrefix == nil || *params.WordPrefix != "ma" {
		t.Fatalf("expected WordPrefix 'ma', got %v", params.WordPrefix)
	}
	if params.Important == nil || !*params.Important {
		t.Fatalf("expected Important true, got %v", params.Important)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if params.CreatedAfter == nil || !params.CreatedAfter.Equal(want) {
		t.Fatalf("expected CreatedAfter %v, got %v", want, params.CreatedAfter)
	}
	if params.CreatedBefore != nil || params.Word != nil {
		t.Fatalf("unexpected fields set: %+v", params)
	}
	wantOrder := []OrderTerm{{Key: "created_at", Desc: true}, {Key: "word"}}
	if !reflect.DeepEqual(params.OrderBy, wantOrder) {
		t.Fatalf("expected default order %v, got %v", wantOrder, params.OrderBy)
	}
}

func TestBind_NegatedBool(t *testing.T) {
	var params wordParams
	if err := Bind("!important", "", &params, wordSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if params.Important == nil || *params.Important {
		t.Fatalf("expected Important false, got %v", params.Important)
	}

	params = wordParams{}
	if err := Bind("important == true", "", &params, wordSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if params.Important == nil || !*params.Important {
		t.Fatalf("expected Important true, got %v", params.Important)
	}
}

func TestBind_InOperator(t *testing.T) {
	var params wordParams
	if err := Bind(`word in ["mare", "terra"]`, "", &params, wordSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	want := []string{"mare", "terra"}
	if !reflect.DeepEqual(params.Words, want) {
		t.Fatalf("expected Words %v, got %v", want, params.Words)
	}
}

func TestBind_Order(t *testing.T) {
	var params wordParams
	if err := Bind("", "important desc, word", &params, wordSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	want := []OrderTerm{{Key: "important", Desc: true}, {Key: "word"}}
	if !reflect.DeepEqual(params.OrderBy, want) {
		t.Fatalf("expected order %v, got %v", want, params.OrderBy)
	}

	if err := Bind("", "created_at asc", &params, wordSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	want = []OrderTerm{{Key: "created_at"}, {Key: "word"}}
	if !reflect.DeepEqual(params.OrderBy, want) {
		t.Fatalf("expected fallback appended %v, got %v", want, params.OrderBy)
	}
}

func TestBind_Errors(t *testing.T) {
	tests := []struct {
		name    string
		filter  string
		orderBy string
		want    string
	}{
		{"unsupported field", `unknown == "x"`, "", "not allowed"},
		{"unsupported operator", `language <= "lat"`, "", "operator"},
		{"bad literal type", `language == true`, "", "expected string"},
		{"bad logical op", `language == "lat" || important`, "", "only AND"},
		{"non literal", `word == language`, "", "right-hand side"},
		{"negated string", `!language`, "", "boolean"},
		{"bad timestamp", `created_at >= timestamp("yesterday")`, "", "rfc3339"},
		{"unknown order key", "", "lemma", "cannot be used for ordering"},
		{"bad direction", "", "word sideways", "invalid order segment"},
		{"duplicate order key", "", "word, word desc", "duplicate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var params wordParams
			err := Bind(tc.filter, tc.orderBy, &params, wordSchema)
			if err == nil {
				t.Fatalf("expected error for %q / %q", tc.filter, tc.orderBy)
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.want)) {
				t.Fatalf("expected error to contain %q, got %v", tc.want, err)
			}
		})
	}
}

func TestBind_InvalidParams(t *testing.T) {
	var params *wordParams
	if err := Bind(`language == "lat"`, "", params, wordSchema); err == nil {
		t.Fatalf("expected error when params is nil pointer")
	}

	type noOrder struct{ Language string }
	var p noOrder
	if err := Bind(`language == "lat"`, "", &p, wordSchema); err == nil || !strings.Contains(err.Error(), "OrderBy") {
		t.Fatalf("expected missing OrderBy error, got %v", err)
	}
}
