package ir

// Field is a named reference to a data column (spec.md §3). SourceName is
// the field as it appeared in source text; GenericNamesMap is populated by
// the mapping layer, one entry per candidate SourceMapping id.
type Field struct {
	SourceName      string
	GenericNamesMap map[string]string
	Alias           string
	// Unmapped is set when no candidate SourceMapping resolved a generic
	// name for this field; the renderer attaches an UnmappedField
	// diagnostic and falls back to SourceName verbatim.
	Unmapped bool
}

func NewField(sourceName string) *Field {
	return &Field{SourceName: sourceName, GenericNamesMap: map[string]string{}}
}

// GenericName returns the generic name resolved for sourceMappingID, or
// SourceName verbatim if that mapping never resolved one.
func (f *Field) GenericName(sourceMappingID string) string {
	if name, ok := f.GenericNamesMap[sourceMappingID]; ok {
		return name
	}
	return f.SourceName
}

func (*Field) funcArgNode() {}

// FieldValue is the triple (field, operator, value) of spec.md §3. Value is
// []any when Operator is one of MultiValueOperators; under a single-valued
// Operator it is a scalar (integer or string), or a list that the renderer
// expands into an OR of single comparisons. NewFieldValue stores its
// arguments as given and does not check either shape.
type FieldValue struct {
	Field    *Field
	Operator *Identifier
	Value    any
}

func NewFieldValue(field *Field, operator *Identifier, value any) *FieldValue {
	return &FieldValue{Field: field, Operator: operator, Value: value}
}

func (*FieldValue) tokenNode()   {}
func (*FieldValue) funcArgNode() {}

// IsMultiValue reports whether Value must be treated as an ordered list.
func (fv *FieldValue) IsMultiValue() bool {
	return MultiValueOperators[fv.Operator.TokenType]
}

// ValueList returns Value as []any, converting a scalar to a one-element
// list; useful for renderers that need uniform iteration.
func (fv *FieldValue) ValueList() []any {
	if list, ok := fv.Value.([]any); ok {
		return list
	}
	return []any{fv.Value}
}

// Keyword is a bare search term with no field qualifier.
type Keyword struct {
	Value string
}

func (*Keyword) tokenNode()   {}
func (*Keyword) funcArgNode() {}
