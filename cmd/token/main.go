// Command token mints an access token for the API.  Token issuance lives
// outside the server; operators use this to hand out ADMIN, COLLEGE and
// TEST_CENTER credentials.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nithish2321/EntraceEase/internal/utils"
)

func main() {
	_ = godotenv.Load()

	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
	subject := flag.String("sub", "operator", "token subject")
	role := flag.String("role", utils.RoleAdmin, "ADMIN, COLLEGE or TEST_CENTER")
	scope := flag.String("scope", "", "college or test center id (required for COLLEGE and TEST_CENTER)")
	ttl := flag.Int("ttl", 60, "lifetime in minutes")
	flag.Parse()

	r := strings.ToUpper(*role)
	switch r {
	case utils.RoleAdmin:
	case utils.RoleCollege, utils.RoleTestCenter:
		if *scope == "" {
			fmt.Fprintf(os.Stderr, "-scope is required for role %s\n", r)
			os.Exit(2)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	tok, err := utils.NewAccessToken(*secret, *subject, r, *scope, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format("2006-01-02T15:04:05Z07:00"))
}
