package web

import (
	_ "embed"
	"encoding/base64"
	"html/template"

	"github.com/basel-ax/imgworkshop/internal/service"
)

const pageName = "page"

//go:embed templates/page.html
var pageHTML string

var pageTemplate = template.Must(template.New(pageName).Parse(pageHTML))

type pageView struct {
	ShowPassword bool
	Prompt       string
	Error        string
	Result       *resultView
}

type resultView struct {
	DataURL         template.URL
	Prompt          string
	DefaultFilename string
	Notices         []string
}

func newResultView(res *service.GenerationResult, prompt string) *resultView {
	return &resultView{
		DataURL:         template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(res.Data)),
		Prompt:          prompt,
		DefaultFilename: Slugify(prompt, defaultSlugLimit) + ".png",
		Notices:         res.Notices,
	}
}
