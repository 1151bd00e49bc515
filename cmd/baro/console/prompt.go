package console

import (
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

// Confirm asks a yes/no question. An empty answer selects No so destructive
// commands need an explicit y.
func Confirm(question string) (bool, error) {
	answer, err := Prompt(question, No, Yes)
	if err != nil {
		return false, err
	}
	return answer == Yes, nil
}

// Prompt reads one line from the terminal. With constraints the answer is
// normalized to one of them; the first constraint is the default.
func Prompt(question string, constraints ...string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: promptLine(question, constraints),
		Stdout: writer,
		Stderr: errWriter,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()
	response, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return choose(response, constraints), nil
}

func promptLine(question string, constraints []string) string {
	if len(constraints) == 0 {
		return question + " "
	}
	var prompt strings.Builder
	prompt.WriteString(question)
	prompt.WriteString(" [")
	prompt.WriteString(strings.ToUpper(constraints[0]))
	for _, c := range constraints[1:] {
		prompt.WriteString("/")
		prompt.WriteString(c)
	}
	prompt.WriteString("]: ")
	return prompt.String()
}

func choose(response string, constraints []string) string {
	if len(constraints) == 0 {
		return response
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return c
		}
	}
	return constraints[0]
}
