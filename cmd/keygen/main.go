package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/staffmonitr-go/internal/config"
	"github.com/arnavshah/staffmonitr-go/pkg/auth"
	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// keygen mints a dev API access token for a staff id, signed with the
// dev server's secret. Handy for curl sessions against cmd/devapi.
func main() {
	config.LoadEnv()

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <staffID> [role]")
		os.Exit(1)
	}

	staffID := os.Args[1]
	role := models.RoleStaff
	if len(os.Args) > 2 {
		role = models.Role(os.Args[2])
	}
	if !role.Valid() {
		fmt.Printf("Error: unsupported role %q\n", role)
		os.Exit(1)
	}

	conf, err := config.Load(os.Getenv("STAFFMONITR_CONFIG"))
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if conf.DevAPI.JWTSecret == "" {
		fmt.Println("Error: STAFFMONITR_DEVAPI_JWT_SECRET not found in .env")
		os.Exit(1)
	}

	token, expiresAt, err := auth.CreateToken([]byte(conf.DevAPI.JWTSecret), staffID, role, conf.DevAPI.JWTExpiry)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Printf("Token for %s (%s), expires %s:\n%s\n", staffID, role, expiresAt.Format("2006-01-02 15:04 MST"), token)
}
