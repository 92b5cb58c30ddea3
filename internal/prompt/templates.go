package prompt

const guidanceTemplate = `{{if .Context}}
## Context
{{.Context}}
{{end}}{{if .Tools}}
## Available Tools
You can use these tools to read and change the user's data:
{{range .Tools}}- {{.Name}}: {{.Description}}
{{end}}
When using tools:
1. If the user asks about their tasks, call {{with .List}}{{.}}{{else}}the most relevant tool{{end}} first and answer from its result.
2. You DO have access to the user's task list through these tools. Never say you cannot see it.
{{- with .Create}}
3. When the user asks to add or remember something to do, call {{.}}.{{with $.Verify}} Then call {{.}} to confirm it was saved.{{end}}
{{- end}}
{{else}}
## Tools
No tools are available for this request. Answer from the conversation alone and be clear about what you could not check.
{{end}}`
