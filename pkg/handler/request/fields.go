package request

// Form field names posted by the panel page.
const (
	FieldGenes = "genes"
	FieldExt   = "ext"
	FieldWrap  = "wrap"
)
