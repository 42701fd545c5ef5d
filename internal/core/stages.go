package core

// UnknownStage is returned when the classifier produces an index that has no label.
const UnknownStage = "Clase desconocida"

var stageLabels = [...]string{
	"IA1", "IA2", "IB", "IIA",
	"IIIA", "IIIB", "IIIC",
	"IVA", "IVB",
}

// ClassMapping maps classifier output indices to disease-stage labels. It is
// immutable once constructed.
type ClassMapping struct {
	labels []string
}

func NewClassMapping(labels []string) ClassMapping {
	return ClassMapping{labels: append([]string(nil), labels...)}
}

func DefaultClassMapping() ClassMapping {
	return NewClassMapping(stageLabels[:])
}

func (c ClassMapping) Label(idx int) string {
	if idx < 0 || idx >= len(c.labels) {
		return UnknownStage
	}
	return c.labels[idx]
}

func (c ClassMapping) Labels() []string {
	return append([]string(nil), c.labels...)
}

func (c ClassMapping) Len() int {
	return len(c.labels)
}
