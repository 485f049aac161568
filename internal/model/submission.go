package model

import (
	"fmt"
	"strings"
)

// WebhookPayload representa o corpo enviado pelo Squarespace no webhook de formulário.
type WebhookPayload struct {
	FormSubmission *FormSubmission `json:"formSubmission"`
	Website        *Website        `json:"website,omitempty"`
}

// Website identifica o site de origem quando o Squarespace o inclui.
type Website struct {
	ID string `json:"id"`
}

// FormSubmission é uma submissão de formulário: id, nome do formulário,
// timestamp e os campos na ordem original.
type FormSubmission struct {
	ID        string `json:"id"`
	FormName  string `json:"formName"`
	Timestamp string `json:"timestamp"`
	Fields    Fields `json:"fields"`
}

// Field é um campo nomeado pelo fornecedor; o valor pode ser escalar ou lista.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Fields preserva a ordem de preenchimento do formulário.
type Fields []Field

// Extract devolve o valor do primeiro campo cujo nome casa com um dos aliases,
// sem diferenciar maiúsculas. Listas são unidas com ", ". Valor nulo conta como
// ausente; ausência não é erro.
func (f Fields) Extract(aliases ...string) (string, bool) {
	for _, field := range f {
		name := strings.ToLower(field.Name)
		for _, alias := range aliases {
			if name != strings.ToLower(alias) {
				continue
			}
			if field.Value == nil {
				return "", false
			}
			return Text(field.Value), true
		}
	}

	return "", false
}

// Text converte o valor bruto de um campo em texto: listas unidas com ", ",
// escalares como vieram.
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Text(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
