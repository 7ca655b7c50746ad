package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/lingosense/pkg/service"
	"github.com/sirupsen/logrus"
)

var (
	serverAddr = flag.String("addr", "localhost:50051", "gRPC server address")
	sourceLang = flag.String("source", "hindi", "Source language (name, ISO code or model tag)")
	targets    = flag.String("targets", "malayalam,tamil", "Comma-separated target languages")
	textFile   = flag.String("file", "", "Path to text file to process")
	text       = flag.String("text", "", "Romanized text to process (if file not provided)")
	timeout    = flag.Duration("timeout", 2*time.Minute, "Request timeout")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	var input string
	if *textFile != "" {
		data, err := os.ReadFile(*textFile)
		if err != nil {
			logger.WithError(err).Fatalf("Failed to read file: %s", *textFile)
		}
		input = string(data)
	} else if *text != "" {
		input = *text
	} else {
		logger.Fatal("Either -file or -text must be provided")
	}

	targetList := make([]interface{}, 0)
	for _, t := range strings.Split(*targets, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targetList = append(targetList, t)
		}
	}

	logger.WithFields(logrus.Fields{
		"server":      *serverAddr,
		"source_lang": *sourceLang,
		"targets":     targetList,
		"text_length": len(input),
	}).Info("Connecting to LingoSense server...")

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.WithError(err).Fatal("Failed to create client")
	}
	defer conn.Close()

	client := service.NewPipelineServiceClient(conn)

	req, err := structpb.NewStruct(map[string]interface{}{
		"text":    input,
		"source":  *sourceLang,
		"targets": targetList,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to build request")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := client.Run(ctx, req)
	if err != nil {
		logger.WithError(err).Fatal("Pipeline run failed")
	}
	duration := time.Since(startTime)

	result := resp.AsMap()
	separator := strings.Repeat("=", 80)
	dashLine := strings.Repeat("-", 80)

	section := func(title string, body interface{}) {
		fmt.Println(dashLine)
		fmt.Println(title)
		fmt.Println(dashLine)
		fmt.Println(body)
		fmt.Println()
	}

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("PIPELINE RESULTS")
	fmt.Println(separator)
	fmt.Printf("\nSource Language: %v\n", result["source"])
	fmt.Printf("Round Trip: %.2f seconds\n\n", duration.Seconds())

	section("INPUT:", input)
	section("NATIVE SCRIPT:", result["native"])
	section("NORMALIZED:", result["normalized"])
	section("CODE-MIXED TOKENS:", result["code_mixed"])
	section("ENGLISH:", result["english"])

	if entries, ok := result["entries"].([]interface{}); ok {
		for _, e := range entries {
			entry, _ := e.(map[string]interface{})
			section(fmt.Sprintf("%v (%v):", strings.ToUpper(fmt.Sprint(entry["language"])), entry["tag"]), entry["text"])
		}
	}
	if failures, ok := result["failures"].([]interface{}); ok {
		for _, f := range failures {
			failure, _ := f.(map[string]interface{})
			section(fmt.Sprintf("FAILED %v:", failure["tag"]), failure["error"])
		}
	}
	fmt.Println(separator)

	logger.WithFields(logrus.Fields{
		"duration_seconds": duration.Seconds(),
	}).Info("Pipeline run completed")
}
