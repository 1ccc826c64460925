package manifest

// The exports/imports engine depends on the insertion order of object keys
// ("default" must come last, conditions are scanned in written order), so
// manifests cannot be decoded into Go maps. Values are ordered trees built
// from a single gjson walk over the raw document.

import "github.com/tidwall/gjson"

type Kind uint8

const (
	Null Kind = iota
	String
	Bool
	Array
	Object

	// Other is anything the resolver ignores: numbers mostly.
	Other
)

type Value struct {
	Kind    Kind
	Str     string
	BoolVal bool
	Items   []Value
	Members []Member
}

// Member is one key/value pair of an object, in document order.
type Member struct {
	Key   string
	Value Value
}

// Get scans the members in order and returns the value for the first
// matching key.
func (v Value) Get(key string) (Value, bool) {
	for _, member := range v.Members {
		if member.Key == key {
			return member.Value, true
		}
	}
	return Value{}, false
}

func (v Value) IsObject() bool {
	return v.Kind == Object
}

// ValueFromJSON builds an ordered value tree from raw JSON text.
func ValueFromJSON(content string) (Value, bool) {
	if !gjson.Valid(content) {
		return Value{}, false
	}
	return fromResult(gjson.Parse(content)), true
}

func fromResult(result gjson.Result) Value {
	switch {
	case result.IsObject():
		value := Value{Kind: Object}
		result.ForEach(func(key, item gjson.Result) bool {
			value.Members = append(value.Members, Member{Key: key.String(), Value: fromResult(item)})
			return true
		})
		return value

	case result.IsArray():
		value := Value{Kind: Array}
		result.ForEach(func(_, item gjson.Result) bool {
			value.Items = append(value.Items, fromResult(item))
			return true
		})
		return value
	}

	switch result.Type {
	case gjson.String:
		return Value{Kind: String, Str: result.Str}
	case gjson.True:
		return Value{Kind: Bool, BoolVal: true}
	case gjson.False:
		return Value{Kind: Bool}
	case gjson.Null:
		return Value{Kind: Null}
	}
	return Value{Kind: Other}
}
