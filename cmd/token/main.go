package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gofulfill/internal/domain"
	"gofulfill/internal/pkg/token"
)

// Emite um JWT de operador para as rotas protegidas (reposição, recarga do catálogo).
func main() {
	_ = godotenv.Load()

	subject := flag.String("sub", "operator", "identificação do operador")
	role := flag.String("role", string(domain.RoleAdmin), "papel do operador (admin, viewer)")
	ttl := flag.Duration("ttl", time.Hour, "validade do token")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("❌ Erro de Configuração: A variável de ambiente JWT_SECRET_KEY deve ser definida.")
	}

	switch domain.OperatorRole(*role) {
	case domain.RoleAdmin, domain.RoleViewer:
	default:
		log.Fatalf("papel desconhecido: %s", *role)
	}

	signed, err := token.NewService(secret, *ttl).GenerateToken(*subject, *role)
	if err != nil {
		log.Fatalf("falha ao emitir token: %v", err)
	}
	fmt.Println(signed)
}
