// Command mfa-keygen prints a new MFA_ENCRYPTION_KEY.
package main

import (
	"fmt"
	"os"

	"github.com/repclub/mfakit/pkg/secrets"
)

func main() {
	key, err := secrets.GenerateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(secrets.EncodeKey(key))
}
