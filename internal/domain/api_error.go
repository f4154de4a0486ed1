package domain

// Тело ошибки HTTP-ответа. Успешные ответы отдаются без конверта.
type APIError struct {
	Code string `json:"code"`
	Text string `json:"text,omitempty"`
}

type APIErrorBody struct {
	Error APIError `json:"error"`
}

func Fail(code, text string) APIErrorBody {
	return APIErrorBody{Error: APIError{Code: code, Text: text}}
}
