package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ValueKind describes the kind of literal value a field accepts.
type ValueKind string

const (
	KindString    ValueKind = "string"
	KindBool      ValueKind = "bool"
	KindTimestamp ValueKind = "timestamp"
)

// Op represents a supported comparison operation.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// Field describes how a filter identifier maps to params struct fields, one per allowed operation.
type Field struct {
	Kind ValueKind
	Ops  map[Op]string
}

// Schema aggregates filtering and ordering rules for a resource.
type Schema struct {
	Fields map[string]Field
	Order  OrderSchema
}

var (
	timeType  = reflect.TypeOf(time.Time{})
	orderType = reflect.TypeOf([]OrderTerm(nil))
)

// Bind parses a CEL filter and an order_by clause and populates binding accordingly.
// Filters are conjunctions of simple comparisons, e.g.
//
//	language == "lat" && word.startsWith("ma") && important
func Bind[P any](filter, orderBy string, binding *P, schema Schema) error {
	if binding == nil {
		return errors.New("binding must not be nil")
	}
	dest := reflect.ValueOf(binding).Elem()
	if dest.Kind() != reflect.Struct {
		return errors.New("binding must point to a struct")
	}

	if err := bindFilter(dest, filter, schema.Fields); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	if len(schema.Order.Keys) == 0 {
		return nil
	}
	terms, err := ParseOrderBy(orderBy, schema.Order)
	if err != nil {
		return fmt.Errorf("order_by: %w", err)
	}
	field := dest.FieldByName("OrderBy")
	if !field.IsValid() || !field.CanSet() || field.Type() != orderType {
		return fmt.Errorf("params struct %s needs a settable OrderBy []filterexpr.OrderTerm field", dest.Type())
	}
	field.Set(reflect.ValueOf(terms))
	return nil
}

func bindFilter(dest reflect.Value, filter string, fields map[string]Field) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(fields) == 0 {
		return errors.New("schema has no filter fields")
	}

	env, err := buildEnv(fields)
	if err != nil {
		return err
	}
	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return fmt.Errorf("failed to convert AST: %w", err)
	}
	conjuncts, err := flattenAnd(parsed.GetExpr())
	if err != nil {
		return err
	}

	for _, expr := range conjuncts {
		pred, err := parsePredicate(expr, fields)
		if err != nil {
			return err
		}
		rule, ok := fields[pred.field]
		if !ok {
			return fmt.Errorf("field %q is not allowed", pred.field)
		}
		target, ok := rule.Ops[pred.op]
		if !ok {
			return fmt.Errorf("operator %q is not allowed for field %q", string(pred.op), pred.field)
		}
		if err := checkLiteral(rule.Kind, pred.op, pred.value); err != nil {
			return fmt.Errorf("field %q: %w", pred.field, err)
		}

		field := dest.FieldByName(target)
		if !field.IsValid() || !field.CanSet() {
			return fmt.Errorf("params struct %s has no settable field %q", dest.Type(), target)
		}
		if err := assign(field, pred.value); err != nil {
			return fmt.Errorf("failed to assign field %q: %w", target, err)
		}
	}
	return nil
}

type predicate struct {
	field string
	op    Op
	value any
}

func buildEnv(fields map[string]Field) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields))
	for name, rule := range fields {
		var t *cel.Type
		switch rule.Kind {
		case KindString:
			t = cel.StringType
		case KindBool:
			t = cel.BoolType
		case KindTimestamp:
			t = cel.TimestampType
		default:
			return nil, fmt.Errorf("field %q: unsupported kind %s", name, rule.Kind)
		}
		opts = append(opts, cel.Variable(name, t))
	}
	return cel.NewEnv(opts...)
}

// flattenAnd splits nested && chains; any other logical operator is rejected.
func flattenAnd(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}
	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}
	switch call.Function {
	case "_&&_":
		var out []*exprpb.Expr
		for _, arg := range call.Args {
			parts, err := flattenAnd(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, parts...)
		}
		return out, nil
	case "_||_", "_?_:_":
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

func parsePredicate(expr *exprpb.Expr, fields map[string]Field) (predicate, error) {
	// Bare boolean identifiers: `important` and `!important`.
	if ident := expr.GetIdentExpr(); ident != nil {
		return boolPredicate(ident.GetName(), true, fields)
	}
	call := expr.GetCallExpr()
	if call == nil {
		return predicate{}, errors.New("unsupported expression; expected comparison or function call")
	}

	switch call.Function {
	case "!_":
		if len(call.Args) == 1 {
			if ident := call.Args[0].GetIdentExpr(); ident != nil {
				return boolPredicate(ident.GetName(), false, fields)
			}
		}
		return predicate{}, errors.New("negation is only supported on boolean fields")
	case "_==_":
		return binary(call, OpEQ)
	case "_>=_":
		return binary(call, OpGTE)
	case "_<=_":
		return binary(call, OpLTE)
	case "@in", "_in_":
		return receiverOrBinary(call, OpIN, true)
	case "startsWith":
		return receiverOrBinary(call, OpSW, false)
	default:
		return predicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func boolPredicate(name string, value bool, fields map[string]Field) (predicate, error) {
	if rule, ok := fields[name]; !ok || rule.Kind != KindBool {
		return predicate{}, fmt.Errorf("field %q is not a boolean", name)
	}
	return predicate{field: name, op: OpEQ, value: value}, nil
}

func binary(call *exprpb.Expr_Call, op Op) (predicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return predicate{}, fmt.Errorf("operator %q expects two operands", string(op))
	}
	return operands(call.Args[0], call.Args[1], op)
}

// receiverOrBinary accepts both `a.f(b)` and `f(a, b)` call shapes. For `in` the
// receiver form carries the list as target.
func receiverOrBinary(call *exprpb.Expr_Call, op Op, listIsTarget bool) (predicate, error) {
	switch {
	case call.Target != nil && len(call.Args) == 1:
		if listIsTarget {
			return operands(call.Args[0], call.Target, op)
		}
		return operands(call.Target, call.Args[0], op)
	case call.Target == nil && len(call.Args) == 2:
		return operands(call.Args[0], call.Args[1], op)
	default:
		return predicate{}, fmt.Errorf("%s expects a field and a value", string(op))
	}
}

func operands(fieldExpr, valueExpr *exprpb.Expr, op Op) (predicate, error) {
	ident := fieldExpr.GetIdentExpr()
	if ident == nil {
		return predicate{}, errors.New("left-hand side must be an identifier")
	}
	value, err := literal(valueExpr)
	if err != nil {
		return predicate{}, err
	}
	return predicate{field: ident.GetName(), op: op, value: value}, nil
}

func literal(expr *exprpb.Expr) (any, error) {
	if constant := expr.GetConstExpr(); constant != nil {
		switch constant.ConstantKind.(type) {
		case *exprpb.Constant_StringValue:
			return constant.GetStringValue(), nil
		case *exprpb.Constant_BoolValue:
			return constant.GetBoolValue(), nil
		default:
			return nil, fmt.Errorf("literal type %T is not supported", constant.ConstantKind)
		}
	}

	if list := expr.GetListExpr(); list != nil {
		values := make([]string, 0, len(list.GetElements()))
		for i, elem := range list.GetElements() {
			v, err := literal(elem)
			if err != nil {
				return nil, fmt.Errorf("list literal element %d: %w", i, err)
			}
			s, ok := v.(string)
			if !ok {
				return nil, errors.New("list literal elements must be strings")
			}
			values = append(values, s)
		}
		return values, nil
	}

	if call := expr.GetCallExpr(); call != nil && call.Function == "timestamp" {
		if call.Target != nil || len(call.Args) != 1 || call.Args[0].GetConstExpr() == nil {
			return nil, errors.New("timestamp() expects a single string literal")
		}
		raw := call.Args[0].GetConstExpr().GetStringValue()
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("timestamp literal %q is not RFC3339", raw)
		}
		return t, nil
	}

	return nil, errors.New("right-hand side must be a literal, list literal, or timestamp() call")
}

func checkLiteral(kind ValueKind, op Op, value any) error {
	switch kind {
	case KindString:
		if op == OpIN {
			list, ok := value.([]string)
			if !ok || len(list) == 0 {
				return errors.New("expected a non-empty list of string literals")
			}
			return nil
		}
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	case KindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
	default:
		return fmt.Errorf("unsupported field kind %s", kind)
	}
	return nil
}

func assign(field reflect.Value, value any) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assign(field.Elem(), value)
	}

	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("expected string destination, got %s", field.Kind())
		}
		field.SetString(v)
	case bool:
		if field.Kind() != reflect.Bool {
			return fmt.Errorf("expected bool destination, got %s", field.Kind())
		}
		field.SetBool(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("expected []string destination, got %s", field.Type())
		}
		field.Set(reflect.ValueOf(append([]string(nil), v...)))
	case time.Time:
		if field.Type() != timeType {
			return fmt.Errorf("expected time.Time destination, got %s", field.Type())
		}
		field.Set(reflect.ValueOf(v))
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}
