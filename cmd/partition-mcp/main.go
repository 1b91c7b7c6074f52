package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/image-partition-mcp/internal/config"
	"github.com/ironsheep/image-partition-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("partition-mcp - MCP server for image partitioning")
	fmt.Println()
	fmt.Println("Usage: partition-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println("  -config PATH     YAML configuration file")
	fmt.Println("  -http ADDR       Also serve the tools over HTTP on ADDR")
	fmt.Println("  -write-config PATH  Write the effective configuration as YAML and exit")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s=:8080    HTTP listen address\n", config.EnvHTTPAddr)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client.")
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("partition-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	configPath := flag.String("config", "", "YAML configuration file")
	httpAddr := flag.String("http", "", "HTTP listen address")
	writeConfig := flag.String("write-config", "", "write the effective configuration to this path and exit")
	flag.Usage = usage
	flag.Parse()

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	cfg.ApplyEnv()
	if *httpAddr != "" {
		cfg.Server.HTTPAddr = *httpAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if *writeConfig != "" {
		if err := config.SaveConfig(cfg, *writeConfig); err != nil {
			log.Fatalf("Config error: %v", err)
		}
		log.Printf("Wrote configuration to %s", *writeConfig)
		return
	}

	if cfg.Debug() {
		log.Printf("Image Partition MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(cfg)
	srv.SetVersion(Version)

	if cfg.Server.HTTPAddr != "" {
		go func() {
			if err := srv.ListenAndServe(cfg.Server.HTTPAddr); err != nil {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
