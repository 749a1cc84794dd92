package main

import (
	"github.com/yungbote/surveyreport-backend/internal/cli"
)

func main() {
	cli.Execute()
}
