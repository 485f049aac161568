package squarespace

import (
	"fmt"
	"strings"

	"squarespace-chatwoot-integrator/internal/model"
)

// surfacedFields são os nomes já representados nas linhas Name/Email/Phone ou no
// texto livre; não voltam a aparecer na seção de detalhes.
var surfacedFields = map[string]struct{}{
	"email":         {},
	"email address": {},
	"phone":         {},
	"phone number":  {},
	"name":          {},
	"full name":     {},
	"first name":    {},
	"message":       {},
	"question":      {},
	"comments":      {},
}

// buildMessageContent monta o corpo da mensagem: texto livre primeiro, depois o
// separador fixo, os dados estruturados preenchidos e por fim os campos
// restantes na ordem original do formulário. Nenhum campo se perde nem repete.
func buildMessageContent(submission *model.FormSubmission, message, name, email, phone string) string {
	var lines []string

	if message != "" {
		lines = append(lines, message)
	}

	lines = append(lines, "", "--- Submission details ---")

	if name != "" {
		lines = append(lines, "Name: "+name)
	}
	if email != "" {
		lines = append(lines, "Email: "+email)
	}
	if phone != "" {
		lines = append(lines, "Phone: "+phone)
	}

	for _, field := range submission.Fields {
		if _, ok := surfacedFields[strings.ToLower(field.Name)]; ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", field.Name, model.Text(field.Value)))
	}

	return strings.Join(lines, "\n")
}
