// Package domain holds identifiers and value types shared across features.
package domain

// DocumentType distinguishes Brazilian taxpayer documents.
type DocumentType string

const (
	DocumentTypeCPF  DocumentType = "CPF"
	DocumentTypeCNPJ DocumentType = "CNPJ"
)

// Digits returns the exact digit count a well-formed document of this type
// must sanitize to.
func (t DocumentType) Digits() int {
	if t == DocumentTypeCNPJ {
		return 14
	}
	return 11
}

// IsCPF reports whether the type is an individual (CPF) document.
func (t DocumentType) IsCPF() bool {
	return t != DocumentTypeCNPJ
}
