package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/orocos/internal/cli"
	"github.com/aretw0/orocos/internal/presentation/tui"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/task"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect and drive a running task",
}

// withTask runs fn on a proxy of the task called name.
func withTask(ctx context.Context, name string, fn func(*task.TaskContext) error) error {
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	t, err := client.Task(ctx, name)
	if err != nil {
		return err
	}
	return fn(t)
}

func printState(cmd *cobra.Command, t *task.TaskContext) error {
	state, err := t.State(cmd.Context())
	if err != nil {
		return err
	}
	profile := termenv.Ascii
	if tui.IsTerminal(os.Stdout) {
		profile = termenv.ColorProfile()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", t.Name(), tui.StateString(profile, state))
	return nil
}

var taskStateCmd = &cobra.Command{
	Use:   "state TASK",
	Short: "Print the lifecycle state of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(cmd.Context(), args[0], func(t *task.TaskContext) error {
			return printState(cmd, t)
		})
	},
}

func transitionCmd(tr domain.Transition) *cobra.Command {
	return &cobra.Command{
		Use:   string(tr) + " TASK",
		Short: fmt.Sprintf("Run the %s transition on a task", tr),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTask(cmd.Context(), args[0], func(t *task.TaskContext) error {
				if err := t.Apply(cmd.Context(), tr); err != nil {
					return err
				}
				return printState(cmd, t)
			})
		},
	}
}

var taskDescribeCmd = &cobra.Command{
	Use:   "describe TASK",
	Short: "Describe a task: state, model, attributes and ports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(cmd.Context(), args[0], func(t *task.TaskContext) error {
			md, err := t.Describe(cmd.Context())
			if err != nil {
				return err
			}
			out, err := tui.RendererFor(os.Stdout)(md)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

var taskGetCmd = &cobra.Command{
	Use:   "get TASK MEMBER",
	Short: "Read an attribute, a property or the last sample of a port",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		return withTask(cmd.Context(), args[0], func(t *task.TaskContext) error {
			v, err := t.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if p, ok := v.(*task.Port); ok {
				sample, ok, err := p.Read(cmd.Context())
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s has no sample yet", p)
				}
				v = sample
			}
			return cli.PrintValue(cmd.OutOrStdout(), format, v)
		})
	},
}

var taskSetCmd = &cobra.Command{
	Use:   "set TASK MEMBER VALUE",
	Short: "Write an attribute or a property, or a sample on an input port",
	Long: `Write a value. VALUE is parsed as JSON (numbers, booleans, objects, lists);
anything else is sent as a string.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := parseValue(args[2])
		return withTask(cmd.Context(), args[0], func(t *task.TaskContext) error {
			isPort, err := t.HasPort(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if !isPort {
				return t.Set(cmd.Context(), args[1], value)
			}
			p, err := t.Port(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			return p.Write(cmd.Context(), value)
		})
	},
}

var taskCallCmd = &cobra.Command{
	Use:   "call TASK OPERATION [ARG...]",
	Short: "Call an operation exported by a task and print its result",
	Long: `Call an operation and wait for it to return. Each ARG is parsed like the
VALUE of 'task set'.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		values := make([]any, 0, len(args)-2)
		for _, a := range args[2:] {
			values = append(values, parseValue(a))
		}
		return withTask(cmd.Context(), args[0], func(t *task.TaskContext) error {
			v, err := t.Call(cmd.Context(), args[1], values...)
			if err != nil {
				return err
			}
			return cli.PrintValue(cmd.OutOrStdout(), format, v)
		})
	},
}

func parseValue(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	return v
}

var taskProvidingCmd = &cobra.Command{
	Use:   "providing CAPABILITY",
	Short: "Print the only running task implementing a model or interface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		t, err := client.TaskProviding(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskStateCmd, taskDescribeCmd, taskGetCmd, taskSetCmd, taskCallCmd, taskProvidingCmd)
	for _, tr := range domain.Transitions {
		taskCmd.AddCommand(transitionCmd(tr))
	}
	taskGetCmd.Flags().StringP("output", "o", "yaml", "Output format: json or yaml")
	taskCallCmd.Flags().StringP("output", "o", "yaml", "Output format: json or yaml")
}
