package abiregistry

// Minimal read-only interfaces of the Flare periphery contracts.

const flareContractRegistryABI = `[
	{"inputs":[{"internalType":"string","name":"_name","type":"string"}],"name":"getContractAddressByName","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getAllContracts","outputs":[{"internalType":"string[]","name":"","type":"string[]"},{"internalType":"address[]","name":"","type":"address[]"}],"stateMutability":"view","type":"function"}
]`

const ftsoRegistryABI = `[
	{"inputs":[{"internalType":"string","name":"_symbol","type":"string"}],"name":"getCurrentPriceWithDecimals","outputs":[{"internalType":"uint256","name":"_price","type":"uint256"},{"internalType":"uint256","name":"_timestamp","type":"uint256"},{"internalType":"uint256","name":"_assetPriceUsdDecimals","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getSupportedSymbols","outputs":[{"internalType":"string[]","name":"_supportedSymbols","type":"string[]"}],"stateMutability":"view","type":"function"}
]`

const ftsoManagerABI = `[
	{"inputs":[],"name":"getCurrentPriceEpochId","outputs":[{"internalType":"uint256","name":"_priceEpochId","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getPriceEpochConfiguration","outputs":[{"internalType":"uint256","name":"_firstPriceEpochStartTs","type":"uint256"},{"internalType":"uint256","name":"_priceEpochDurationSeconds","type":"uint256"},{"internalType":"uint256","name":"_revealEpochDurationSeconds","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getCurrentRewardEpoch","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const priceSubmitterABI = `[
	{"inputs":[],"name":"getFtsoManager","outputs":[{"internalType":"contract IFtsoManagerGenesis","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getFtsoRegistry","outputs":[{"internalType":"contract IFtsoRegistryGenesis","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

const relayABI = `[
	{"inputs":[{"internalType":"uint256","name":"_timestamp","type":"uint256"}],"name":"getVotingRoundId","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const wNatABI = `[
	{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"totalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`
