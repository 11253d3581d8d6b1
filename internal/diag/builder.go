package diag

func New(sev Severity, code Code, primary Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

func NewHint(code Code, primary Span, msg string) Diagnostic {
	return New(SevHint, code, primary, msg)
}

// WithData attaches a machine-readable payload for quickfix synthesis.
func (d Diagnostic) WithData(data string) Diagnostic {
	d.Data = data
	return d
}
