package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const minPasswordLength = 8

// passwordReader returns one password, prompting with prompt when the
// input is interactive.
type passwordReader func(prompt string) ([]byte, error)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	read := stdinReader(os.Stdin, os.Stderr)

	var err error
	switch os.Args[1] {
	case "hash":
		err = runHash(read, os.Stdout, bcryptCost())
	case "verify":
		hash := os.Getenv("ADMIN_PASSWORD_HASH")
		if len(os.Args) > 2 {
			hash = os.Args[2]
		}
		err = runVerify(read, os.Stdout, hash)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(os.Args[1]))
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sanitizeCommand replaces anything outside [a-zA-Z0-9_-] with '_'.
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

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Portfolio Admin Password Tool")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: hashpw <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  hash           - Print a bcrypt hash for ADMIN_PASSWORD_HASH")
	fmt.Fprintln(w, "  verify [hash]  - Check a password against a hash")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  ADMIN_PASSWORD_HASH - Hash checked by verify when no argument is given")
	fmt.Fprintf(w, "  BCRYPT_COST         - Cost used by hash (default: %d)\n", bcrypt.DefaultCost)
}

func bcryptCost() int {
	cost, err := strconv.Atoi(os.Getenv("BCRYPT_COST"))
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

// stdinReader reads passwords without echo from a terminal, or line by
// line from piped input.
func stdinReader(in *os.File, prompts io.Writer) passwordReader {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		return func(prompt string) ([]byte, error) {
			fmt.Fprint(prompts, prompt)
			password, err := term.ReadPassword(fd)
			fmt.Fprintln(prompts)
			return password, err
		}
	}
	return lineReader(in)
}

func lineReader(r io.Reader) passwordReader {
	scanner := bufio.NewScanner(r)
	return func(string) ([]byte, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.ErrUnexpectedEOF
		}
		return bytes.TrimRight(scanner.Bytes(), "\r"), nil
	}
}

func runHash(read passwordReader, out io.Writer, cost int) error {
	password, err := read("New Password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	// The scanner reuses its buffer.
	password = bytes.Clone(password)

	confirm, err := read("Confirm Password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	fmt.Fprintln(out, string(hash))
	return nil
}

func runVerify(read passwordReader, out io.Writer, hash string) error {
	if hash == "" {
		return errors.New("no hash given and ADMIN_PASSWORD_HASH is not set")
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("invalid hash: %w", err)
	}

	password, err := read("Password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), password); err != nil {
		return errors.New("password does not match")
	}
	fmt.Fprintln(out, "Password matches.")
	return nil
}
