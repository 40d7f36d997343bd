// Command extractcheck runs one walkthrough extraction against the configured
// LLM provider and prints the resulting lead report. It is a manual smoke
// test for prompt and provider changes.
//
//	go run ./cmd/extractcheck answers.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"github.com/wolfman30/leadbridge/cmd/mainconfig"
	"github.com/wolfman30/leadbridge/internal/app/bootstrap"
	appconfig "github.com/wolfman30/leadbridge/internal/config"
	"github.com/wolfman30/leadbridge/internal/walkthrough"
	"github.com/wolfman30/leadbridge/pkg/logging"
)

var sampleAnswers = []walkthrough.Answer{
	{Question: "What does your business do?", Answer: "We run three dental clinics"},
	{Question: "How big is your team?", Answer: "About 25 people"},
	{Question: "What's your biggest bottleneck right now?", Answer: "Patient intake is all paper forms and phone tag"},
	{Question: "What tools do you use today?", Answer: "Dentrix, Google Sheets, Gmail"},
	{Question: "What outcome would make this a win?", Answer: "Cut front desk admin time in half"},
	{Question: "What's your timeline?", Answer: "Next quarter"},
	{Question: "Do you have a budget in mind?", Answer: "Around $15k"},
	{Question: "Where should we send your summary?", Answer: "owner@example.com"},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	answers := sampleAnswers
	if len(os.Args) > 1 {
		loaded, err := loadAnswers(os.Args[1])
		if err != nil {
			log.Fatalf("load answers: %v", err)
		}
		answers = loaded
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.UpstreamTimeout+10*time.Second)
	defer cancel()

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			log.Fatalf("load aws config: %v", err)
		}
		awsCfg = &loaded
	}

	llm, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, nil, logger)
	if err != nil {
		log.Fatalf("build llm client: %v", err)
	}
	if llm == nil {
		fmt.Println("No LLM provider configured; the report below comes from the keyword fallback.")
	}

	start := time.Now()
	report, source := walkthrough.NewExtractor(llm, nil, logger).Extract(ctx, answers)
	elapsed := time.Since(start)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}
	fmt.Printf("source=%s elapsed=%v\n", source, elapsed.Round(time.Millisecond))
	fmt.Println(string(out))
	if email := walkthrough.DiscoverEmail(answers); email != "" {
		fmt.Printf("user email: %s\n", email)
	}
}

func loadAnswers(path string) ([]walkthrough.Answer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var answers []walkthrough.Answer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return answers, nil
}
