package domain

import "strings"

// SafetyResource es una linea de ayuda de crisis.
type SafetyResource struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Link    string `json:"link,omitempty"`
}

// SafetyResponse es el documento fijo que se devuelve ante una clasificacion de crisis.
// No contiene marcado de UI; la presentacion decide como mostrarlo.
type SafetyResponse struct {
	Acknowledgment string           `json:"acknowledgment"`
	Emergency      string           `json:"emergency"`
	Resources      []SafetyResource `json:"resources"`
}

// Clone devuelve una copia profunda.
func (r SafetyResponse) Clone() SafetyResponse {
	out := r
	out.Resources = append([]SafetyResource(nil), r.Resources...)
	return out
}

// PlainText renderiza el payload como texto para clientes sin soporte estructurado y para el historial del LLM.
func (r SafetyResponse) PlainText() string {
	var sb strings.Builder
	sb.WriteString(r.Acknowledgment)
	sb.WriteString("\n\n")
	sb.WriteString(r.Emergency)
	for _, res := range r.Resources {
		sb.WriteString("\n- ")
		sb.WriteString(res.Name)
		sb.WriteString(": ")
		sb.WriteString(res.Contact)
		if res.Link != "" {
			sb.WriteString(" (")
			sb.WriteString(res.Link)
			sb.WriteString(")")
		}
	}
	return sb.String()
}
