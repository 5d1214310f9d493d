package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
	"gofulfill/internal/pkg/logger"
)

// RetryAfter é o valor do header Retry-After enviado junto de respostas BUSY.
var RetryAfter = time.Second

// Handle processa o resultado do serviço e envia a resposta padronizada ao cliente.
func Handle(w http.ResponseWriter, r *http.Request, log logger.Logger, data interface{}, err error, successStatus int) {
	if err != nil {
		Error(w, r, log, err)
		return
	}
	JSON(w, log, successStatus, data)
}

// JSON escreve data como corpo JSON com o status informado.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
		log.Error("Falha ao codificar JSON de resposta", jsonErr)
	}
}

// Error traduz err via MapToHTTPStatus e escreve o corpo domain.ErrorResponse.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 && !apperror.IsBusy(err) {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	if apperror.IsBusy(err) {
		w.Header().Set("Retry-After", strconv.Itoa(int(RetryAfter/time.Second)))
	}

	JSON(w, log, status, domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}
