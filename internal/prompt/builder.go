package prompt

import (
	"bytes"
	"strings"
	"text/template"

	"brainbox/internal/tools"
	"brainbox/internal/tools/builtin"
)

var guidance = template.Must(template.New("guidance").Parse(guidanceTemplate))

type toolInfo struct {
	Name        string
	Description string
}

type guidanceData struct {
	Context   string
	Tools     []toolInfo
	// Names of the task tools on offer; empty when absent.
	List   string
	Create string
	Verify string
}

// Build renders the instruction block for one attempt: the safety preamble,
// the system text from the conversation, and guidance for the tools the
// attempt exposes. It is rebuilt for every attempt because the tool set
// shrinks as attempts degrade.
func Build(systemText string, ts []tools.Tool) (string, error) {
	data := guidanceData{Context: strings.TrimSpace(systemText)}
	for _, t := range ts {
		data.Tools = append(data.Tools, toolInfo{Name: t.Name(), Description: t.Description()})
		switch name := t.Name(); name {
		case builtin.ListTasks:
			data.List = name
		case builtin.CreateTask:
			data.Create = name
		case builtin.VerifyTask:
			data.Verify = name
		}
	}

	var buf bytes.Buffer
	buf.WriteString(SafetyPreamble)
	buf.WriteByte('\n')
	if err := guidance.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
