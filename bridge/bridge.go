// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge implements the deterministic, one-way map from points and
// addresses on the secondary curve E into the core's prime-order group G.
// It is not an isomorphism: it does not preserve scalar relationships, so a
// ring populated with bridged points cannot be signed through the bridged
// E-secret. Its only use is producing decoy ring members that two
// independent observers, given the same E-keys, agree on byte-for-byte.
package bridge

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/shielded-core/group"
	"github.com/luxfi/shielded-core/stealth"
)

const (
	// domainBridgePoint separates point-to-G bridging from every other
	// hash-to-point use in the system.
	domainBridgePoint = "BRIDGE_P_V1"
	// domainBridgeAddress separates address-to-G bridging.
	domainBridgeAddress = "BRIDGE_A_V1"
)

// PointToG maps a compressed point on E deterministically into G.
func PointToG(p *stealth.Point) *group.Point {
	return group.HashToPoint([]byte(domainBridgePoint), p.Compressed())
}

// AddressToG maps a 20-byte E address deterministically into G.
func AddressToG(addr common.Address) *group.Point {
	return group.HashToPoint([]byte(domainBridgeAddress), addr[:])
}
