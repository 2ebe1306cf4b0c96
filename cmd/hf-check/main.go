// Command hf-check verifies that the configured Hugging Face token can read
// the gated pyannote models speaker diarization depends on.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/jbousquie/whisperx-api/diarization/huggingface"
	"github.com/jbousquie/whisperx-api/util"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorRed    = "\033[31m"
)

func info(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[info] "+colorReset+msg+"\n", a...)
}

func warn(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[warn] "+colorReset+msg+"\n", a...)
}

func ok(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[ok] "+colorReset+msg+"\n", a...)
}

func fail(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[error] "+colorReset+msg+"\n", a...)
}

func main() {
	var (
		envFile string
		token   string
		hub     string
		timeout time.Duration
	)
	flag.StringVar(&envFile, "env", ".env", "dotenv file to load before reading the token")
	flag.StringVar(&token, "token", "", "token to check (default: HF_TOKEN or HUGGINGFACE_TOKEN)")
	flag.StringVar(&hub, "hub", huggingface.DefaultBaseURL, "Hugging Face Hub base URL")
	flag.DurationVar(&timeout, "timeout", time.Minute, "overall timeout")
	flag.Parse()

	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		warn("could not load %s: %v", envFile, err)
	}

	token = huggingface.Token(token)
	if token == "" {
		fail("no Hugging Face token found")
		info("add HF_TOKEN=<your token> to %s or export it", envFile)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	info("checking model access with token %s", util.MaskSecret(token, 5))

	checker := huggingface.NewChecker(hub, token)
	granted := true
	for _, a := range checker.CheckAll(ctx, huggingface.RequiredModels) {
		if a.Granted {
			ok("access granted for %s", a.Model)
			continue
		}
		granted = false
		fail("access denied for %s (%s)", a.Model, a.Error)
		info("accept the user conditions at %s", a.ConditionsURL(checker.BaseURL))
	}

	if !granted {
		info("after accepting the conditions run hf-check again")
		info("tokens are managed at %s/settings/tokens", checker.BaseURL)
		os.Exit(1)
	}
	ok("the token can read every required model")
}
