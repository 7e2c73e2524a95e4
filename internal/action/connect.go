package action

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"rtshell/internal/domain"
	"rtshell/internal/naming"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// ConnectOptions describe a connector to create
type ConnectOptions struct {
	// ID is the connector id; the framework generates one when empty
	ID         string
	Name       string
	Properties map[string]string
}

// FindConnection returns the connectors between two resolved ports,
// restricted to id when it is not empty
func (x *Executor) FindConnection(src, dst *resolver.Resolved, id string) []domain.Connector {
	if src.Port == nil || dst.Port == nil {
		return nil
	}
	return src.Port.FindConnector(src.PortRef(), dst.PortRef(), id)
}

// Connect wires two ports. If a connector with the requested id already
// joins them, it is returned unchanged and created is false.
func (x *Executor) Connect(ctx context.Context, src, dst *resolver.Resolved, opts ConnectOptions) (conn *domain.Connector, created bool, err error) {
	if err := requireKind(src, tree.KindPort); err != nil {
		return nil, false, err
	}
	if err := requireKind(dst, tree.KindPort); err != nil {
		return nil, false, err
	}
	if src.Node.Server != dst.Node.Server {
		return nil, false, fmt.Errorf("%s and %s are on different name servers", src.FullPath, dst.FullPath)
	}
	if !src.Port.Polarity.Compatible(dst.Port.Polarity) {
		return nil, false, rterror.New(rterror.WrongPortPolarity)
	}
	if opts.ID != "" {
		if existing := x.FindConnection(src, dst, opts.ID); len(existing) > 0 {
			x.logger.Debug("connector already present",
				zap.String("id", opts.ID),
				zap.String("source", src.FullPath),
				zap.String("target", dst.FullPath))
			return &existing[0], false, nil
		}
	}

	svc, err := x.service(ctx, src.Node)
	if err != nil {
		return nil, false, err
	}
	conn, err = svc.Connect(ctx, naming.ConnectRequest{
		ID:         opts.ID,
		Name:       opts.Name,
		Ports:      []domain.PortRef{src.PortRef(), dst.PortRef()},
		Properties: opts.Properties,
	})
	if err != nil {
		return nil, false, remote(err, src.FullPath)
	}
	return conn, true, nil
}

// Disconnect removes connectors from a port. With dst set only connectors
// joining both ports are removed; with id set only that connector. With
// neither, every connector on the port is removed.
func (x *Executor) Disconnect(ctx context.Context, src, dst *resolver.Resolved, id string) error {
	if err := requireKind(src, tree.KindPort); err != nil {
		return err
	}
	var found []domain.Connector
	if dst != nil {
		if err := requireKind(dst, tree.KindPort); err != nil {
			return err
		}
		found = x.FindConnection(src, dst, id)
	} else {
		found = src.Port.FindConnector(src.PortRef(), domain.PortRef{}, id)
	}

	if len(found) == 0 {
		switch {
		case id != "":
			return rterror.New(rterror.NoConnectionByID, src.FullPath, id)
		case dst != nil:
			return rterror.New(rterror.NoConnectionByEndpoints, src.FullPath, dst.FullPath)
		}
		return nil
	}

	svc, err := x.service(ctx, src.Node)
	if err != nil {
		return err
	}
	for _, c := range found {
		if err := svc.Disconnect(ctx, src.PortRef(), c.ID); err != nil {
			return remote(err, src.FullPath)
		}
		x.logger.Debug("disconnected", zap.String("port", src.FullPath), zap.String("id", c.ID))
	}
	return nil
}

// DisconnectComponent removes every connector on every port of a component
func (x *Executor) DisconnectComponent(ctx context.Context, comp *resolver.Resolved) error {
	profile, err := x.profile(ctx, comp)
	if err != nil {
		return err
	}
	svc, err := x.service(ctx, comp.Node)
	if err != nil {
		return err
	}
	for _, p := range profile.Ports {
		ref := domain.PortRef{Ref: comp.Node.Ref, Port: p.Name}
		for _, c := range p.Connectors {
			err := svc.Disconnect(ctx, ref, c.ID)
			if err != nil && !errors.Is(err, domain.ErrNotConnected) {
				return remote(err, comp.FullPath+":"+p.Name)
			}
		}
	}
	return nil
}
