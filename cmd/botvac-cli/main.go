package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fullstorydev/grpcurl"
	"github.com/jhump/protoreflect/grpcreflect"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	var addr string
	var timeout time.Duration
	var jsonOutput bool

	flags := pflag.NewFlagSet("botvac-cli", pflag.ContinueOnError)
	flags.StringVar(&addr, "addr", "", "daemon gRPC address (default from BOTVAC_GRPC_ADDR or config)")
	flags.DurationVar(&timeout, "timeout", 3*time.Minute, "overall deadline for the command")
	flags.BoolVar(&jsonOutput, "json", false, "print JSON output")
	flags.SetInterspersed(false)
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			usage()
			return
		}
		fatal("flags", err)
	}

	args := flags.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	if addr == "" {
		addr = resolveAddr()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dialCancel()
	conn, err := grpcurl.BlockingDial(dialCtx, "tcp", addr, insecure.NewCredentials())
	if err != nil {
		fatal("dial", err)
	}
	defer conn.Close()

	out := outputMode{json: jsonOutput}
	switch args[0] {
	case "start", "stop", "dock":
		operationCmd(ctx, conn, args[0], out)
	case "state":
		stateCmd(ctx, conn, out)
	case "services":
		servicesCmd(ctx, conn)
	case "methods":
		methodsCmd(ctx, conn, args[1:])
	case "call":
		callCmd(ctx, conn, args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func servicesCmd(ctx context.Context, conn *grpc.ClientConn) {
	descSource := reflectionSource(ctx, conn)
	services, err := grpcurl.ListServices(descSource)
	if err != nil {
		fatal("list services", err)
	}

	for _, service := range services {
		fmt.Println(service)
	}
}

func methodsCmd(ctx context.Context, conn *grpc.ClientConn, args []string) {
	if len(args) < 1 {
		fatal("methods", fmt.Errorf("missing service name"))
	}

	descSource := reflectionSource(ctx, conn)
	methods, err := grpcurl.ListMethods(descSource, args[0])
	if err != nil {
		fatal("list methods", err)
	}

	for _, method := range methods {
		fmt.Println(method)
	}
}

func callCmd(ctx context.Context, conn *grpc.ClientConn, args []string) {
	flags := pflag.NewFlagSet("call", pflag.ExitOnError)
	data := flags.StringP("data", "d", "", "JSON request body")
	_ = flags.Parse(args)
	remaining := flags.Args()
	if len(remaining) < 1 {
		fatal("call", fmt.Errorf("missing method (service/method)"))
	}

	method := remaining[0]
	descSource := reflectionSource(ctx, conn)

	var reader io.Reader
	if *data != "" {
		reader = strings.NewReader(*data)
	} else if isStdinTerminal() {
		reader = strings.NewReader("{}")
	} else {
		reader = os.Stdin
	}

	parser, formatter, err := grpcurl.RequestParserAndFormatter(grpcurl.FormatJSON, descSource, reader, grpcurl.FormatOptions{})
	if err != nil {
		fatal("parse request", err)
	}

	handler := grpcurl.NewDefaultEventHandler(os.Stdout, descSource, formatter, false)
	if err := grpcurl.InvokeRPC(ctx, descSource, conn, method, nil, handler, parser.Next); err != nil {
		fatal("invoke", err)
	}
	if handler.Status != nil && handler.Status.Err() != nil {
		fatal("call", handler.Status.Err())
	}
}

func reflectionSource(ctx context.Context, conn *grpc.ClientConn) grpcurl.DescriptorSource {
	client := grpcreflect.NewClientAuto(ctx, conn)
	return grpcurl.DescriptorSourceFromServer(ctx, client)
}

func isStdinTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return true
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func usage() {
	fmt.Println("botvac-cli [--addr host:port] [--timeout 3m] [--json] <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  start                 start or resume cleaning")
	fmt.Println("  stop                  pause and send the robot to base")
	fmt.Println("  dock                  send the robot to base if it allows it now")
	fmt.Println("  state                 show state and available commands")
	fmt.Println("  services")
	fmt.Println("  methods <service>")
	fmt.Println("  call <service/method> --data '{}' (or pipe JSON via stdin)")
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
