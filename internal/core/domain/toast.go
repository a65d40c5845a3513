package domain

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
	ToastWarning ToastKind = "warning"
)

// A Toast is a passive one-shot notification.
type Toast struct {
	Kind        ToastKind `json:"kind"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
}

func NewToast(kind ToastKind, message, description string) Toast {
	return Toast{Kind: kind, Message: message, Description: description}
}
