package models

// Credentials — данные доступа, сгенерированные при провижининге:
// аккаунт панели и созданный сервер.
type Credentials struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	PanelURL   string `json:"panel_url"`
	ServerID   int    `json:"server_id"`
	ServerUUID string `json:"server_uuid"`
	ServerName string `json:"server_name"`
}

// ProvisionResult — результат провижининга. При неуспехе Error содержит
// исходное сообщение ошибки, а RollbackActions — список компенсирующих
// действий, которые были выполнены (в порядке выполнения).
type ProvisionResult struct {
	Success         bool         `json:"success"`
	UserID          int          `json:"user_id,omitempty"`
	ServerID        int          `json:"server_id,omitempty"`
	Credentials     *Credentials `json:"credentials,omitempty"`
	Error           string       `json:"error,omitempty"`
	RollbackActions []string     `json:"rollback_actions,omitempty"`
}
