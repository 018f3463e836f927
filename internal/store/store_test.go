package store

import (
	"github.com/servicehub/sparecrm/internal/app"
	"github.com/servicehub/sparecrm/internal/approval"
	"github.com/servicehub/sparecrm/internal/authz"
	"github.com/servicehub/sparecrm/internal/delivery"
	"github.com/servicehub/sparecrm/internal/inventory"
	"github.com/servicehub/sparecrm/internal/logistics"
	"github.com/servicehub/sparecrm/internal/movement"
	"github.com/servicehub/sparecrm/internal/spares"
)

var (
	_ spares.TxStore          = (*Tx)(nil)
	_ inventory.Store         = (*Tx)(nil)
	_ movement.Store          = (*Tx)(nil)
	_ logistics.Store         = (*Tx)(nil)
	_ approval.TxRepository   = (*Tx)(nil)
	_ delivery.TxRepository   = (*Tx)(nil)
	_ inventory.TxRepository  = (*Tx)(nil)
	_ spares.TxRunner[*Tx]    = (*Store)(nil)
	_ inventory.TxRunner[*Tx] = (*Store)(nil)
	_ approval.TxRunner[*Tx]  = (*Store)(nil)
	_ delivery.TxRunner[*Tx]  = (*Store)(nil)
	_ authz.Directory         = (*Store)(nil)
	_ app.Pinger              = (*Store)(nil)
)
