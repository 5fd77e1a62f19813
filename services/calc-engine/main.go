package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"roi_advisor/pkg/core/roi"
	"roi_advisor/pkg/core/utils"
)

type output struct {
	Scenario  roi.Scenario        `json:"scenario"`
	Results   roi.Result          `json:"results"`
	CashFlows []roi.CashFlowPoint `json:"cash_flows"`
}

func main() {
	mode := flag.String("mode", "calculate", "Mode: check or calculate")
	dataStr := flag.String("data", "", "Scenario payload (JSON or Hjson)")
	flag.Parse()

	if *dataStr == "" {
		fmt.Println("Error: No data provided")
		os.Exit(1)
	}

	var s roi.Scenario
	if _, err := utils.DecodeLenient([]byte(*dataStr), &s); err != nil {
		fmt.Printf("Error unmarshaling data: %v\n", err)
		os.Exit(1)
	}

	switch *mode {
	case "check":
		os.Exit(runCheck(s))
	case "calculate":
		os.Exit(runCalculation(s))
	default:
		fmt.Printf("Unknown mode: %s\n", *mode)
		os.Exit(2)
	}
}

func runCheck(s roi.Scenario) int {
	if err := s.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	fmt.Println("Success: scenario is valid")
	return 0
}

func runCalculation(s roi.Scenario) int {
	res, flows, err := roi.Compute(s)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	if flows == nil {
		flows = []roi.CashFlowPoint{}
	}
	out, err := json.MarshalIndent(output{Scenario: s, Results: res, CashFlows: flows}, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding result: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}
