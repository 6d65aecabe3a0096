package graph

import (
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

// JSON - произвольное JSON-значение.
var JSON = graphql.NewScalar(graphql.ScalarConfig{
	Name:         "JSON",
	Description:  "Arbitrary JSON value",
	Serialize:    func(value interface{}) interface{} { return value },
	ParseValue:   func(value interface{}) interface{} { return value },
	ParseLiteral: parseLiteral,
})

// JSONObject - JSON-объект (блоб конфигурации или его фрагмент).
var JSONObject = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSONObject",
	Description: "JSON object",
	Serialize: func(value interface{}) interface{} {
		if obj, ok := value.(map[string]any); ok {
			return obj
		}
		return nil
	},
	ParseValue: func(value interface{}) interface{} {
		if obj, ok := value.(map[string]any); ok {
			return obj
		}
		return nil
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if _, ok := valueAST.(*ast.ObjectValue); !ok {
			return nil
		}
		return parseLiteral(valueAST)
	},
})

func parseLiteral(valueAST ast.Value) interface{} {
	switch v := valueAST.(type) {
	case *ast.ObjectValue:
		obj := make(map[string]any, len(v.Fields))
		for _, field := range v.Fields {
			obj[field.Name.Value] = parseLiteral(field.Value)
		}
		return obj
	case *ast.ListValue:
		list := make([]any, 0, len(v.Values))
		for _, item := range v.Values {
			list = append(list, parseLiteral(item))
		}
		return list
	case *ast.StringValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.IntValue:
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil
		}
		return f
	case *ast.FloatValue:
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil
		}
		return f
	case *ast.EnumValue:
		return v.Value
	default:
		return nil
	}
}
