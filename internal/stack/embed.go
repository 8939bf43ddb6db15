package stack

import _ "embed"

//go:embed template.yaml
var TemplateBody string
