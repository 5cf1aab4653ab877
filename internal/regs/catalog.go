package regs

// DesignWare MIPI DSI host controller register map (RK3399 instance).
const (
	dsiPwrUp          = 0x004
	dsiClkMgrCfg      = 0x008
	dsiDPIColorCoding = 0x010
	dsiDPICfgPol      = 0x014
	dsiModeCfg        = 0x034
	dsiVidModeCfg     = 0x038
	dsiVidPktSize     = 0x03c
	dsiVidHSATime     = 0x048
	dsiVidHBPTime     = 0x04c
	dsiVidHLineTime   = 0x050
	dsiVidVSALines    = 0x054
	dsiVidVBPLines    = 0x058
	dsiVidVFPLines    = 0x05c
	dsiVidVActive     = 0x060
	dsiToCntCfg       = 0x078
	dsiLPClkCtrl      = 0x094
	dsiPhyTmrCfg      = 0x09c
	dsiPhyRstz        = 0x0a0
	dsiPhyIfCfg       = 0x0a4
	dsiPhyTstCtrl0    = 0x0b4
	dsiPhyTstCtrl1    = 0x0b8
)

// DSI host fields.
var (
	Shutdownz = mustField(dsiPwrUp, 1, 0)

	TxEscClkDivision = mustField(dsiClkMgrCfg, 8, 0)
	ToClkDivision    = mustField(dsiClkMgrCfg, 8, 8)

	DPIColorCoding = mustField(dsiDPIColorCoding, 4, 0)

	DataEnActiveLow = mustField(dsiDPICfgPol, 1, 0)
	VSyncActiveLow  = mustField(dsiDPICfgPol, 1, 1)
	HSyncActiveLow  = mustField(dsiDPICfgPol, 1, 2)
	ColorMActiveLow = mustField(dsiDPICfgPol, 1, 4)

	CmdVideoMode = mustField(dsiModeCfg, 1, 0)

	VidModeType = mustField(dsiVidModeCfg, 2, 0)
	LPVSAEn     = mustField(dsiVidModeCfg, 1, 8)
	LPVBPEn     = mustField(dsiVidModeCfg, 1, 9)
	LPVFPEn     = mustField(dsiVidModeCfg, 1, 10)
	LPVActEn    = mustField(dsiVidModeCfg, 1, 11)
	LPHBPEn     = mustField(dsiVidModeCfg, 1, 12)
	LPHFPEn     = mustField(dsiVidModeCfg, 1, 13)
	LPCmdEn     = mustField(dsiVidModeCfg, 1, 15)

	VidPktSize = mustField(dsiVidPktSize, 14, 0)

	VidHSATime   = mustField(dsiVidHSATime, 12, 0)
	VidHBPTime   = mustField(dsiVidHBPTime, 12, 0)
	VidHLineTime = mustField(dsiVidHLineTime, 15, 0)
	VidVSALines  = mustField(dsiVidVSALines, 10, 0)
	VidVBPLines  = mustField(dsiVidVBPLines, 10, 0)
	VidVFPLines  = mustField(dsiVidVFPLines, 10, 0)
	VidActLines  = mustField(dsiVidVActive, 14, 0)

	HSTxToCnt = mustField(dsiToCntCfg, 16, 16)

	PhyTxRequestClkHS = mustField(dsiLPClkCtrl, 1, 0)

	MaxRdTime    = mustField(dsiPhyTmrCfg, 15, 0)
	PhyLP2HSTime = mustField(dsiPhyTmrCfg, 8, 16)
	PhyHS2LPTime = mustField(dsiPhyTmrCfg, 8, 24)

	PhyShutdownz = mustField(dsiPhyRstz, 1, 0)
	PhyRstz      = mustField(dsiPhyRstz, 1, 1)
	PhyEnableClk = mustField(dsiPhyRstz, 1, 2)
	PhyForcePLL  = mustField(dsiPhyRstz, 1, 3)

	NLanes          = mustField(dsiPhyIfCfg, 2, 0)
	PhyStopWaitTime = mustField(dsiPhyIfCfg, 8, 8)

	PhyTestClr  = mustField(dsiPhyTstCtrl0, 1, 0)
	PhyTestClk  = mustField(dsiPhyTstCtrl0, 1, 1)
	PhyTestDin  = mustField(dsiPhyTstCtrl1, 8, 0)
	PhyTestDout = mustField(dsiPhyTstCtrl1, 8, 8)
	PhyTestEn   = mustField(dsiPhyTstCtrl1, 1, 16)
)

// Field values.
const (
	VideoMode = 0
	BurstMode = 2

	DPI16BitCfg1 = 0x0
	DPI16BitCfg2 = 0x1
	DPI16BitCfg3 = 0x2
	DPI18BitCfg1 = 0x3
	DPI18BitCfg2 = 0x4
	DPI24Bit     = 0x5
	DPI30Bit     = 0x9
)

// RK3399 general register file (GRF), written with hiword masks.
const (
	grfSoCCon20 = 0x6250
	grfSoCCon22 = 0x6258
)

var (
	GRFDSI0VOPSel = mustField(grfSoCCon20, 1, 0)

	GRFDPHYTX0RxMode      = mustField(grfSoCCon22, 4, 0)
	GRFDPHYTX0TxStopMode  = mustField(grfSoCCon22, 4, 4)
	GRFDPHYTX0TurnRequest = mustField(grfSoCCon22, 4, 12)
)

const (
	GRFDSI0VOPSelB = 0
	GRFDSI0VOPSelL = 1

	GRFDPHYTX0Disable = 0
)
