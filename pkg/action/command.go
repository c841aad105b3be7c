package action

import "strings"

// BuildCommand appends each argument to command, separated by single spaces.
//
// Arguments are not quoted or escaped: "a b" forwarded as one argument reaches
// the shell as two words, and shell metacharacters in arguments are
// interpreted. This matches how the commands have always been assembled.
func BuildCommand(command string, args []string) string {
	if len(args) == 0 {
		return command
	}

	var b strings.Builder

	b.WriteString(command)

	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(arg)
	}

	return b.String()
}
