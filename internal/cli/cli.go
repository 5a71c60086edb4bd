package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vetted-backend/internal/analyses"
	"vetted-backend/internal/bootstrap"
	"vetted-backend/internal/chat"
	"vetted-backend/internal/llm"
)

// Backend is what the operator commands drive.
type Backend interface {
	ResolvePersona(ctx context.Context) (string, error)
	Analyze(ctx context.Context, req analyses.Request) (string, error)
	Reply(ctx context.Context, req chat.Request) (string, error)
	Stream(ctx context.Context, req chat.Request) (<-chan llm.StreamEvent, error)
}

// AppBackend runs commands against a bootstrapped application.
type AppBackend struct {
	App *bootstrap.App
}

func (b AppBackend) ResolvePersona(ctx context.Context) (string, error) {
	return b.App.Assistant.ResolvePersona(ctx)
}

func (b AppBackend) Analyze(ctx context.Context, req analyses.Request) (string, error) {
	return b.App.AnalysesService.Analyze(ctx, req)
}

func (b AppBackend) Reply(ctx context.Context, req chat.Request) (string, error) {
	return b.App.ChatService.Reply(ctx, req)
}

func (b AppBackend) Stream(ctx context.Context, req chat.Request) (<-chan llm.StreamEvent, error) {
	return b.App.ChatService.Stream(ctx, req)
}

// NewRootCmd builds the vettedctl command tree. connect is called lazily by each
// subcommand so --help works without configuration.
func NewRootCmd(connect func() (Backend, error), out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "vettedctl",
		Short: "Operator tool for the Vetted analysis service",
		Long: `vettedctl runs the analysis pipeline and chat turns from the command line,
using the same configuration as the API.

Examples:
  vettedctl persona
  vettedctl analyze --file request.yaml
  vettedctl chat --applicant a1 --message "How defensible is the moat?" --stream`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newPersonaCmd(connect), newAnalyzeCmd(connect), newChatCmd(connect))
	return root
}

func newPersonaCmd(connect func() (Backend, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "persona",
		Short: "Print the analyst persona id, creating one if none is configured",
		Long: `Print the analyst persona id. When OPENAI_ASSISTANT_ID is unset a new persona is
created remotely; copy the printed id into OPENAI_ASSISTANT_ID so later runs reuse it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := connect()
			if err != nil {
				return err
			}
			id, err := backend.ResolvePersona(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newAnalyzeCmd(connect func() (Backend, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the analysis pipeline for a request file (YAML or JSON)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			req, err := LoadRequestFile(path)
			if err != nil {
				return err
			}
			backend, err := connect()
			if err != nil {
				return err
			}
			threadID, err := backend.Analyze(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("analysis for %s failed: %w", req.ApplicantID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applicant=%s thread=%s\n", req.ApplicantID, threadID)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Request file with applicantId, cohortId, phase1Data, phase3Data, deckUrl")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newChatCmd(connect func() (Backend, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send one chat turn on an applicant's analysis thread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applicant, _ := cmd.Flags().GetString("applicant")
			message, _ := cmd.Flags().GetString("message")
			stream, _ := cmd.Flags().GetBool("stream")
			req := chat.Request{ApplicantID: applicant, Message: message, Stream: stream}

			backend, err := connect()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !stream {
				reply, err := backend.Reply(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, reply)
				return nil
			}

			events, err := backend.Stream(cmd.Context(), req)
			if err != nil {
				return err
			}
			var streamErr error
			for ev := range events {
				switch {
				case ev.Error != "":
					streamErr = errors.New(ev.Error)
				case ev.Done:
					fmt.Fprintln(out)
				default:
					fmt.Fprint(out, ev.Text)
				}
			}
			return streamErr
		},
	}
	cmd.Flags().String("applicant", "", "Applicant id")
	cmd.Flags().String("message", "", "Message text")
	cmd.Flags().Bool("stream", false, "Print the reply as it streams")
	_ = cmd.MarkFlagRequired("applicant")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
