package cmd

import (
	"flag"
	"fmt"
	"os"

	"rsacrack/src/attack"
	"rsacrack/src/attacks"
)

// ListCommand handles the list subcommand: print every registered attack,
// its speed bucket, and whether it's single-key or cross-key.
func ListCommand(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nList every attack this tool knows, with its speed bucket\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Printf("%-28s %-8s %s\n", "NAME", "SPEED", "SCOPE")
	for _, a := range attacks.All {
		fmt.Printf("%-28s %-8s %s\n", a.Name, speedLabel(a.Speed), "single-key")
	}
	for _, a := range attacks.AllCross {
		fmt.Printf("%-28s %-8s %s\n", a.Name, speedLabel(a.Speed), "cross-key")
	}
	return nil
}

func speedLabel(s attack.Speed) string {
	return s.String()
}
