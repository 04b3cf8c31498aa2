package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/joshp123/botvac/plugins/botvac"
)

func operationCmd(ctx context.Context, conn *grpc.ClientConn, name string, out outputMode) {
	op, err := botvac.ParseOperation(name)
	if err != nil {
		fatal(name, err)
	}

	client := botvac.NewServiceClient(conn)
	switch op {
	case botvac.OperationStart:
		err = client.StartCleaning(ctx)
	case botvac.OperationStop:
		err = client.StopCleaning(ctx)
	case botvac.OperationDock:
		err = client.DockBotvac(ctx)
	}

	if out.json {
		result := map[string]string{"operation": string(op), "code": status.Code(err).String()}
		if err != nil {
			result["error"] = status.Convert(err).Message()
		}
		out.printJSON(result)
		if err != nil {
			exitFailure()
		}
		return
	}
	if err != nil {
		st := status.Convert(err)
		fatal(string(op), fmt.Errorf("%s: %s", st.Code(), st.Message()))
	}
	fmt.Printf("%s: ok\n", op)
}

func stateCmd(ctx context.Context, conn *grpc.ClientConn, out outputMode) {
	resp, err := botvac.NewServiceClient(conn).GetState(ctx)
	if err != nil {
		fatal("state", err)
	}
	fields := resp.AsMap()
	if out.json {
		out.printJSON(fields)
		return
	}

	var available []string
	if list, ok := fields["available_commands"].([]any); ok {
		for _, cmd := range list {
			available = append(available, fmt.Sprint(cmd))
		}
	}
	sort.Strings(available)

	out.table([][]string{
		{"DEVICE", fmt.Sprint(fields["device"])},
		{"STATE", formatNumber(fields["state"])},
		{"ACTION", formatNumber(fields["action"])},
		{"CHARGE", formatNumber(fields["charge"]) + "%"},
		{"CHARGING", fmt.Sprint(fields["is_charging"])},
		{"DOCKED", fmt.Sprint(fields["is_docked"])},
		{"COMMANDS", strings.Join(available, " ")},
	})
}

func formatNumber(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%g", f)
	}
	return fmt.Sprint(v)
}
