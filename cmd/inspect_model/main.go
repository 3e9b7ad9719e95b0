package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"bookingrisk/booking"
	"bookingrisk/ml"
	"bookingrisk/predictor"
)

func main() {
	modelPath := flag.String("model", "./models/hotel_booking_prediction_model.json", "model artifact path")
	flag.Parse()

	if err := inspect(os.Stdout, *modelPath); err != nil {
		log.Fatalf("inspect %s: %v", *modelPath, err)
	}
}

// inspect prints what the artifact declares and checks that a default booking
// can be scored with it.
func inspect(out io.Writer, path string) error {
	model, err := ml.LoadModel(path)
	if err != nil {
		return err
	}

	info := model.Info()
	fmt.Fprintf(out, "model:   %s\n", path)
	fmt.Fprintf(out, "type:    %s\n", info.Type)
	fmt.Fprintf(out, "version: %s\n", info.Version)
	fmt.Fprintln(out, "schema:")
	for i, f := range model.Schema().Features {
		if f.Type == ml.FeatureCategorical {
			fmt.Fprintf(out, "  %2d %-28s %s %v\n", i, f.Name, f.Type, f.Categories)
			continue
		}
		fmt.Fprintf(out, "  %2d %-28s %s\n", i, f.Name, f.Type)
	}

	if err := model.Schema().Check(booking.Columns()); err != nil {
		return err
	}

	store, err := ml.NewStore(1, ml.WithLoader(func(string) (ml.Classifier, error) { return model, nil }))
	if err != nil {
		return err
	}
	verdict, err := predictor.New(store.Source(path)).Predict(context.Background(), booking.Default())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "default booking: %s (label %d)\n", verdict.Verdict, verdict.Label)
	return nil
}
