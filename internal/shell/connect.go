package shell

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"rtshell/internal/action"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

const (
	conUsage = "rtcon [options] <path1> <path2>"
	disUsage = "rtdis [options] <path1> [path2]"
)

// ConnectOptions describe the connector created by Connect
type ConnectOptions struct {
	Name string
	ID   string
	// Properties are key=value pairs
	Properties []string
}

// ParseProperties splits key=value pairs. A pair without "=" fails
// BadPropertyFormat.
func ParseProperties(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, rterror.New(rterror.BadPropertyFormat, p)
		}
		props[k] = v
	}
	return props, nil
}

// Connect wires two ports
func (s *Shell) Connect(ctx context.Context, paths []string, opts ConnectOptions) error {
	props, err := ParseProperties(opts.Properties)
	if err != nil {
		return err
	}
	if len(paths) != 2 {
		return rterror.New(rterror.Usage, conUsage)
	}
	src, dst, err := s.portPair(ctx, paths[0], paths[1])
	if err != nil {
		return err
	}
	conn, created, err := s.exec.Connect(ctx, src, dst, action.ConnectOptions{
		ID:         opts.ID,
		Name:       opts.Name,
		Properties: props,
	})
	if err != nil {
		return err
	}
	s.logger.Debug("connected",
		zap.String("id", conn.ID),
		zap.Bool("created", created),
		zap.String("source", src.FullPath),
		zap.String("target", dst.FullPath))
	return nil
}

// Disconnect removes connectors. With one port every connector on it is
// removed, with one component every connector on all its ports, and with
// two ports only those joining them. A non-empty id restricts removal to
// that connector.
func (s *Shell) Disconnect(ctx context.Context, paths []string, id string) error {
	switch len(paths) {
	case 1:
		return s.disconnectOne(ctx, paths[0], id)
	case 2:
		src, dst, err := s.portPair(ctx, paths[0], paths[1])
		if err != nil {
			return err
		}
		return s.exec.Disconnect(ctx, src, dst, id)
	}
	return rterror.New(rterror.Usage, disUsage)
}

func (s *Shell) disconnectOne(ctx context.Context, raw, id string) error {
	addr, res, err := s.resolve(ctx, raw, resolver.Options{})
	if err != nil {
		return remap(err, addr, rterror.NotADirectory, rterror.NotAComponent)
	}
	switch res.Kind {
	case tree.KindPort:
		return s.exec.Disconnect(ctx, res, nil, id)
	case tree.KindComponent:
		return s.exec.DisconnectComponent(ctx, res)
	}
	return rterror.New(rterror.NotAComponent, addr.Raw)
}

// portPair checks that both paths name ports before resolving either
func (s *Shell) portPair(ctx context.Context, srcRaw, dstRaw string) (src, dst *resolver.Resolved, err error) {
	if err := s.hasPort(srcRaw, rterror.NoSourcePort); err != nil {
		return nil, nil, err
	}
	if err := s.hasPort(dstRaw, rterror.NoDestinationPort); err != nil {
		return nil, nil, err
	}
	if _, src, err = s.resolve(ctx, srcRaw, resolver.Options{}); err != nil {
		return nil, nil, err
	}
	if _, dst, err = s.resolve(ctx, dstRaw, resolver.Options{}); err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}
