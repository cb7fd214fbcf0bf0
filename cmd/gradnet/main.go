// Command gradnet trains and evaluates a feed-forward classifier on
// MNIST-format IDX data, checkpointing at epoch boundaries and on Ctrl-C.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/exp/rand"

	"github.com/gradnet-ml/gradnet/internal/dataset"
	"github.com/gradnet-ml/gradnet/internal/eval"
	"github.com/gradnet-ml/gradnet/internal/nn"
	"github.com/gradnet-ml/gradnet/internal/parallel"
	"github.com/gradnet-ml/gradnet/internal/serialization"
	"github.com/gradnet-ml/gradnet/internal/train"
)

func main() {
	dataDir := flag.String("data", "./data", "Directory containing the MNIST IDX files")
	ckptPath := flag.String("checkpoint", "gradnet.ckpt", "Checkpoint file path")
	hidden := flag.String("hidden", "128", "Comma-separated hidden layer sizes")
	epochs := flag.Int("epochs", 10, "Number of training epochs")
	batchSize := flag.Int("batch", 32, "Mini-batch size")
	lr := flag.Float64("lr", 0.1, "Learning rate")
	seed := flag.Int64("seed", 0, "Seed for weight init and shuffling")
	workers := flag.Int("workers", 0, "Worker goroutines per batch (0 = one per CPU, 1 = sequential)")
	evalOnly := flag.Bool("evaluate", false, "Evaluate the checkpoint against the test set and exit")
	fresh := flag.Bool("new", false, "Start from fresh parameters even when a checkpoint exists")
	flag.Parse()

	if *evalOnly {
		net, err := serialization.Load(*ckptPath)
		if err != nil {
			log.Fatalf("Failed to load checkpoint %s: %v", *ckptPath, err)
		}
		evaluate(net, *dataDir)
		return
	}

	net, resumed, err := loadOrCreate(*ckptPath, *hidden, *fresh, *seed)
	if err != nil {
		log.Fatalf("Failed to set up network: %v", err)
	}
	if resumed {
		fmt.Printf("Resuming from checkpoint: %s\n", *ckptPath)
	} else {
		fmt.Printf("Starting with fresh parameters (hidden layers: %s)\n", *hidden)
	}

	fmt.Printf("Loading training data from: %s\n", *dataDir)
	trainSet, err := dataset.LoadMNIST(*dataDir, true)
	if err != nil {
		log.Fatalf("Failed to load training data: %v", err)
	}
	fmt.Printf("Loaded %d training samples\n", trainSet.Len())

	par := parallel.DefaultConfig()
	switch {
	case *workers == 1:
		par = parallel.Config{}
	case *workers > 1:
		par.NumWorkers = *workers
	}

	trainer, err := train.New(net, train.Config{
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *lr,
		Seed:         *seed,
		Parallel:     par,
		Checkpoint:   train.CheckpointFile{Path: *ckptPath},
		Progress:     printProgress,
	})
	if err != nil {
		log.Fatalf("Invalid training configuration: %v", err)
	}

	// First Ctrl-C requests a cooperative stop; the trainer finishes the
	// in-flight batch and checkpoints. A second Ctrl-C aborts outright.
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigC
		fmt.Println("\nStopping: finishing current batch and saving checkpoint...")
		trainer.Cancel()
		<-sigC
		os.Exit(1)
	}()

	if err := trainer.Run(trainSet); err != nil {
		log.Fatalf("Training failed: %v", err)
	}
	if trainer.Canceled() {
		fmt.Printf("Training canceled; checkpoint saved to %s\n", *ckptPath)
		return
	}
	fmt.Printf("Training complete; checkpoint saved to %s\n", *ckptPath)

	evaluate(net, *dataDir)
}

// loadOrCreate returns a network for training, resuming from the
// checkpoint when one exists and the user confirms.
func loadOrCreate(ckptPath, hidden string, fresh bool, seed int64) (*nn.Network, bool, error) {
	if !fresh {
		if _, err := os.Stat(ckptPath); err == nil {
			if promptResume(ckptPath) {
				net, err := serialization.Load(ckptPath)
				if err != nil {
					return nil, false, err
				}
				return net, true, nil
			}
		}
	}

	sizes, err := parseSizes(hidden)
	if err != nil {
		return nil, false, err
	}
	sizes = append([]int{dataset.ImagePixels}, sizes...)
	sizes = append(sizes, dataset.NumClasses)

	net, err := nn.NewMLP(sizes, nn.Sigmoid, nn.Softmax, rand.NewSource(uint64(seed)))
	if err != nil {
		return nil, false, err
	}
	return net, false, nil
}

func promptResume(path string) bool {
	fmt.Printf("Checkpoint found at %s. Resume from it? [Y/n] ", path)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return true
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes"
}

func parseSizes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	sizes := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid hidden layer size %q", p)
		}
		sizes = append(sizes, v)
	}
	return sizes, nil
}

func printProgress(p train.Progress) {
	if p.Batch%100 == 0 || p.Batch == p.Batches-1 {
		fmt.Printf("\rEpoch %2d/%d  batch %4d/%d  loss=%.4f", p.Epoch+1, p.Epochs, p.Batch+1, p.Batches, p.AvgLoss)
	}
	if p.Batch == p.Batches-1 {
		fmt.Println()
	}
}

func evaluate(net *nn.Network, dataDir string) {
	fmt.Printf("Loading test data from: %s\n", dataDir)
	testSet, err := dataset.LoadMNIST(dataDir, false)
	if err != nil {
		log.Fatalf("Failed to load test data: %v", err)
	}

	result, err := eval.Evaluate(net, testSet, nn.CrossEntropy{})
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	fmt.Printf("\nTest accuracy: %.2f%% (%d/%d)  mean loss: %.4f  mean confidence: %.2f%%\n",
		result.Accuracy()*100, result.Correct, result.Total, result.MeanLoss, result.MeanConfidence*100)
	fmt.Println("Per-class accuracy:")
	for label, c := range result.PerClass {
		fmt.Printf("  %d: %6.2f%% (%d/%d)\n", label, c.Accuracy()*100, c.Correct, c.Total)
	}
}
