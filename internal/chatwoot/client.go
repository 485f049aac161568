package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"squarespace-chatwoot-integrator/internal/config"
)

// ContactDraft agrega os dados derivados de uma submissão usados para resolver
// o contato. O Identifier nunca vem vazio: o handler cai para o id da submissão.
type ContactDraft struct {
	Name       string
	Email      string
	Phone      string
	Identifier string
	Metadata   map[string]any
}

// APIError descreve uma resposta não bem-sucedida do Chatwoot, com o corpo já
// decodificado (ou o placeholder de status text).
type APIError struct {
	Op         string
	StatusCode int
	Body       map[string]any
}

func (e *APIError) Error() string {
	body, _ := json.Marshal(e.Body)
	return fmt.Sprintf("%s: status=%d body=%s", e.Op, e.StatusCode, body)
}

// IsConflict indica o único erro recuperável do fluxo: contato já existente (422).
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

// Client fala com a API REST do Chatwoot no escopo de uma conta.
type Client struct {
	httpClient *http.Client
	cfg        config.ChatwootConfig
}

func NewClient(cfg config.ChatwootConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cfg:        cfg,
	}
}

// CreateOrFindContact tenta criar o contato; em conflito (422) com identifier
// presente, cai para a busca por identifier e devolve o primeiro resultado.
// Qualquer outra falha, ou busca sem resultado, devolve o erro da criação.
func (c *Client) CreateOrFindContact(ctx context.Context, draft ContactDraft) (map[string]any, error) {
	payload := map[string]any{
		"name":              draft.Name,
		"email":             draft.Email,
		"identifier":        draft.Identifier,
		"phone_number":      draft.Phone,
		"custom_attributes": draft.Metadata,
	}

	resp, err := c.do(ctx, http.MethodPost, c.accountURL("/contacts"), payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		var created map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return nil, fmt.Errorf("decode chatwoot contact: %w", err)
		}
		return created, nil
	}

	apiErr := &APIError{Op: "create contact", StatusCode: resp.StatusCode, Body: safeDecode(resp)}

	if apiErr.IsConflict() && draft.Identifier != "" {
		found, ok, err := c.searchContact(ctx, draft.Identifier)
		if err != nil {
			return nil, err
		}
		if ok {
			return found, nil
		}
	}

	return nil, apiErr
}

// searchContact consulta /contacts/search; usado só na recuperação de conflito.
// Resposta não-2xx não é erro aqui: o chamador volta ao erro original da criação.
func (c *Client) searchContact(ctx context.Context, identifier string) (map[string]any, bool, error) {
	searchURL := c.accountURL("/contacts/search") + "?q=" + url.QueryEscape(identifier)

	resp, err := c.do(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, false, nil
	}

	var result struct {
		Payload []map[string]any `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("decode chatwoot search: %w", err)
	}
	if len(result.Payload) == 0 {
		return nil, false, nil
	}

	return map[string]any{"payload": result.Payload[0]}, true, nil
}

// CreateConversation abre uma conversa para o contato no inbox configurado,
// com status "open" e o source_id fixo da configuração.
func (c *Client) CreateConversation(ctx context.Context, contactID int64) (map[string]any, error) {
	payload := map[string]any{
		"contact_id": contactID,
		"inbox_id":   c.cfg.InboxID,
		"source_id":  c.cfg.SourceID,
		"status":     "open",
	}

	resp, err := c.do(ctx, http.MethodPost, c.accountURL("/conversations"), payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, &APIError{Op: "create conversation", StatusCode: resp.StatusCode, Body: safeDecode(resp)}
	}

	var conversation map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&conversation); err != nil {
		return nil, fmt.Errorf("decode chatwoot conversation: %w", err)
	}

	return conversation, nil
}

// CreateMessage anexa o corpo composto à conversa como mensagem "incoming".
func (c *Client) CreateMessage(ctx context.Context, conversationID int64, content string) (map[string]any, error) {
	payload := map[string]any{
		"content":      content,
		"message_type": "incoming",
	}

	messagesURL := c.accountURL(fmt.Sprintf("/conversations/%d/messages", conversationID))

	resp, err := c.do(ctx, http.MethodPost, messagesURL, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, &APIError{Op: "create message", StatusCode: resp.StatusCode, Body: safeDecode(resp)}
	}

	var message map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return nil, fmt.Errorf("decode chatwoot message: %w", err)
	}

	return message, nil
}

func (c *Client) accountURL(path string) string {
	return fmt.Sprintf("%s/api/v1/accounts/%d%s", c.cfg.BaseURL, c.cfg.AccountID, path)
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal chatwoot payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("new chatwoot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_access_token", c.cfg.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call chatwoot: %w", err)
	}

	return resp, nil
}

// safeDecode devolve sempre um objeto estruturado: se o corpo não for JSON,
// cai para um placeholder com o status text da resposta.
func safeDecode(resp *http.Response) map[string]any {
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body == nil {
		return map[string]any{"error": http.StatusText(resp.StatusCode)}
	}

	return body
}

// PayloadID extrai o id numérico de uma resposta do Chatwoot, aceitando tanto
// {"id": …} quanto o envelope {"payload": {"id": …}}. A API devolve os dois
// formatos dependendo do endpoint.
func PayloadID(body map[string]any) (int64, bool) {
	if id, ok := numericID(body["id"]); ok {
		return id, true
	}
	if wrapped, ok := body["payload"].(map[string]any); ok {
		return numericID(wrapped["id"])
	}

	return 0, false
}

func numericID(value any) (int64, bool) {
	switch n := value.(type) {
	case float64:
		if n == 0 {
			return 0, false
		}
		return int64(n), true
	case int:
		if n == 0 {
			return 0, false
		}
		return int64(n), true
	case int64:
		if n == 0 {
			return 0, false
		}
		return n, true
	case json.Number:
		id, err := n.Int64()
		if err != nil || id == 0 {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
