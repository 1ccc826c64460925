package manifest

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/tidwall/gjson"
)

var errInvalidDocument = errors.New("invalid JSON document")

// PkgJSON is one parsed description file ("package.json"). Instances are
// shared process-wide through the content-addressed manifest cache, so a
// PkgJSON must never be mutated after Parse returns; the lazily computed
// alias lists are guarded accordingly.
type PkgJSON struct {
	name string
	root Value

	aliasMutex  sync.Mutex
	aliasFields map[string][]AliasField
}

// AliasField is one remapping contributed by a "browser"-style field.
// https://github.com/defunctzombie/package-browser-field-spec
type AliasField struct {
	Key     string
	Target  string
	Ignored bool
}

// Parse decodes manifest content. The returned error, if any, is the
// underlying JSON error; callers attach the origin path.
func Parse(content string) (*PkgJSON, error) {
	if !gjson.Valid(content) {
		// gjson doesn't explain what went wrong, so run the strict decoder
		// just to produce a useful message.
		var discard interface{}
		if err := json.Unmarshal([]byte(content), &discard); err != nil {
			return nil, err
		}
		return nil, errInvalidDocument
	}
	root := fromResult(gjson.Parse(content))

	name := ""
	if value, ok := root.Get("name"); ok && value.Kind == String {
		name = value.Str
	}

	return &PkgJSON{name: name, root: root}, nil
}

// Name returns the top-level "name" string, if any.
func (p *PkgJSON) Name() string {
	return p.name
}

// Raw returns the root of the ordered value tree.
func (p *PkgJSON) Raw() Value {
	return p.root
}

// GetField walks into the tree along the given path components. It returns
// false if any intermediate value is not an object.
func (p *PkgJSON) GetField(path []string) (Value, bool) {
	current := p.root
	for _, component := range path {
		if !current.IsObject() {
			return Value{}, false
		}
		next, ok := current.Get(component)
		if !ok {
			return Value{}, false
		}
		current = next
	}
	return current, true
}

// AliasFields returns the remappings contributed by the named field. The
// object form yields one entry per key; the string and false forms yield a
// single entry with the "." selector. Results are computed once per field.
func (p *PkgJSON) AliasFields(field string) []AliasField {
	p.aliasMutex.Lock()
	defer p.aliasMutex.Unlock()

	if cached, ok := p.aliasFields[field]; ok {
		return cached
	}

	var fields []AliasField
	if value, ok := p.root.Get(field); ok {
		switch value.Kind {
		case Object:
			for _, member := range value.Members {
				switch {
				case member.Value.Kind == Bool && !member.Value.BoolVal:
					fields = append(fields, AliasField{Key: member.Key, Ignored: true})
				case member.Value.Kind == String:
					fields = append(fields, AliasField{Key: member.Key, Target: member.Value.Str})
				}
			}
		case Bool:
			if !value.BoolVal {
				fields = append(fields, AliasField{Key: ".", Ignored: true})
			}
		case String:
			fields = append(fields, AliasField{Key: ".", Target: value.Str})
		}
	}

	if p.aliasFields == nil {
		p.aliasFields = make(map[string][]AliasField)
	}
	p.aliasFields[field] = fields
	return fields
}

// DescriptionData couples a manifest with the directory it was found in.
type DescriptionData struct {
	JSON *PkgJSON

	// Dir is the directory containing the description file. It is not a
	// property of the manifest itself.
	Dir string
}
