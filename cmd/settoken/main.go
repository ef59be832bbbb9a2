package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"syscall"

	"media-author/internal/session"

	"golang.org/x/term"
)

// Default session directory path
const defaultSessionDir = "/data/session"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	sessionDir := os.Getenv("SESSION_DIR")
	if sessionDir == "" {
		sessionDir = defaultSessionDir
	}
	store := session.NewStore(sessionDir)

	switch command {
	case "set":
		if !setToken(store) {
			os.Exit(1)
		}
	case "status":
		showStatus(store)
	case "clear":
		if err := store.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to clear token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Token cleared.")
	default:
		// Sanitize command input using allowlist before echoing it back
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display, replacing any character that is not alphanumeric, a hyphen, or an
// underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func showStatus(store *session.Store) {
	if store.HasToken() {
		fmt.Println("Status: Token is stored")
	} else {
		fmt.Println("Status: No token stored")
	}
}

func printUsage() {
	fmt.Println("Media Author Session Token Management")
	fmt.Println("")
	fmt.Println("Usage: settoken <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  set     - Store the Catalogue Storage bearer token")
	fmt.Println("  status  - Check whether a token is stored")
	fmt.Println("  clear   - Remove the stored token")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  SESSION_DIR - Path to session directory (default: %s)\n", defaultSessionDir)
}

func setToken(store *session.Store) bool {
	fmt.Print("Token: ")
	token, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
		return false
	}

	fmt.Print("Confirm Token: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
		return false
	}

	if !bytes.Equal(token, confirm) {
		fmt.Fprintln(os.Stderr, "Error: Tokens do not match")
		return false
	}

	trimmed := strings.TrimSpace(string(token))
	if trimmed == "" {
		fmt.Fprintln(os.Stderr, "Error: Token is empty")
		return false
	}

	if err := store.Save(trimmed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to store token: %v\n", err)
		return false
	}

	fmt.Println("Token stored.")
	return true
}
