// Package docs serve o documento OpenAPI embutido e a Swagger UI.
package docs

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// SpecPath é a rota que serve o documento OpenAPI.
const SpecPath = "/openapi.yaml"

//go:embed openapi.yaml
var openAPI []byte

// SpecHandler serve o documento OpenAPI.
func SpecHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(openAPI)
}

// UIHandler serve a Swagger UI apontando para SpecPath.
func UIHandler() http.Handler {
	return httpSwagger.Handler(httpSwagger.URL(SpecPath))
}
