package main

import (
	"fmt"
	"os"

	"rsacrack/src/cmd"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "crack":
		err = cmd.CrackCommand(args)
	case "list":
		err = cmd.ListCommand(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("rsacrack - RSA key/ciphertext cryptanalysis for CTF challenges\n\n")
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s <command> [options]\n\n", os.Args[0])
	fmt.Printf("Commands:\n")
	fmt.Printf("  crack       Recover a private key and/or plaintext from partial key material\n")
	fmt.Printf("  list        List every attack this tool knows\n")
	fmt.Printf("  help        Show this help message\n\n")
	fmt.Printf("Examples:\n")
	fmt.Printf("  %s crack -n 3233 -e 17 -c 2790\n", os.Args[0])
	fmt.Printf("  %s crack --key challenge.pem -c 0x1a2b --dump\n", os.Args[0])
	fmt.Printf("  %s list\n", os.Args[0])
	fmt.Printf("\nFor detailed help on a command, use:\n")
	fmt.Printf("  %s <command> --help\n", os.Args[0])
}
