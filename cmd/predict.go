package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/relay-cli/internal/cluster"
	"github.com/sells-group/relay-cli/internal/model"
	"github.com/sells-group/relay-cli/internal/placement"
)

type predictOutput struct {
	Model  string           `json:"model"`
	Relays []model.Centroid `json:"relays"`
	*cluster.Prediction
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Assign a demand CSV to the relays of a saved model",
	Long:  "Loads a model saved by place --save-model and assigns each demand point to its nearest relay. Demand is not filtered by the region boundary.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("model")
		demandPath, _ := cmd.Flags().GetString("demand")
		demand, err := readDemandCSV(demandPath)
		if err != nil {
			return err
		}

		a, err := openApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		deps := a.deps()
		saved, err := deps.Models.Load(ctx, name)
		if err != nil {
			return err
		}
		pred, err := placement.Predict(ctx, deps, name, demand)
		if err != nil {
			return eris.Wrap(err, "predict")
		}
		return writeJSON(cmd.OutOrStdout(), predictOutput{Model: name, Relays: saved.Relays, Prediction: pred})
	},
}

func init() {
	predictCmd.Flags().String("model", "", "saved model name (required)")
	predictCmd.Flags().String("demand", "", "path to demand CSV with latitude,longitude[,weight] (required)")
	_ = predictCmd.MarkFlagRequired("model")
	_ = predictCmd.MarkFlagRequired("demand")
	rootCmd.AddCommand(predictCmd)
}
