package domain

// OperatorRole define o papel de quem chama as rotas de operação.
type OperatorRole string

const (
	RoleAdmin  OperatorRole = "admin"
	RoleViewer OperatorRole = "viewer"
)
