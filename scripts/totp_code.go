//go:build ignore

// Prints the current TOTP code for a base32 secret. Handy when testing MFA
// flows without an authenticator app:
//
//	go run scripts/totp_code.go JBSWY3DPEHPK3PXP
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pquerna/otp/totp"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("usage: totp_code <base32-secret>")
		os.Exit(1)
	}

	code, err := totp.GenerateCode(os.Args[1], time.Now().UTC())
	if err != nil {
		fmt.Printf("failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(code)
}
