package ethereum

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// DiplomatABI covers the Diplomat calls the services make. Only the call
// shapes are consumed; contract logic lives on chain.
const DiplomatABI = `[
  {"type":"function","name":"createElection","stateMutability":"nonpayable",
   "inputs":[{"name":"electionId","type":"string"}],"outputs":[]},
  {"type":"function","name":"payElection","stateMutability":"payable",
   "inputs":[
     {"name":"electionId","type":"string"},
     {"name":"adrs","type":"address[]"},
     {"name":"amounts","type":"uint256[]"},
     {"name":"token","type":"address"}
   ],"outputs":[]},
  {"type":"event","name":"ElectionCreated","anonymous":false,
   "inputs":[
     {"name":"creator","type":"address","indexed":false},
     {"name":"electionId","type":"string","indexed":false}
   ]},
  {"type":"event","name":"ElectionPaid","anonymous":false,
   "inputs":[{"name":"electionId","type":"string","indexed":false}]}
]`

const ERC20ABI = `[
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

var (
	parseOnce   sync.Once
	diplomatABI abi.ABI
	erc20ABI    abi.ABI
	parseErr    error
)

func parsed() (abi.ABI, abi.ABI, error) {
	parseOnce.Do(func() {
		diplomatABI, parseErr = abi.JSON(strings.NewReader(DiplomatABI))
		if parseErr != nil {
			return
		}
		erc20ABI, parseErr = abi.JSON(strings.NewReader(ERC20ABI))
	})
	return diplomatABI, erc20ABI, parseErr
}

// Backend is what the bound contracts need from a node connection.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

func BindDiplomat(address common.Address, backend Backend) (*bind.BoundContract, error) {
	diplomat, _, err := parsed()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, diplomat, backend, backend, backend), nil
}

func BindERC20(address common.Address, backend Backend) (*bind.BoundContract, error) {
	_, erc20, err := parsed()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, erc20, backend, backend, backend), nil
}

// NativeToken is the zero address, which the Diplomat contract reads as a
// native-currency payout.
var NativeToken = common.Address{}

// TokenAddress maps an optional token string to the address passed to
// payElection.
func TokenAddress(raw string) common.Address {
	raw = strings.TrimSpace(raw)
	if raw == "" || !common.IsHexAddress(raw) {
		return NativeToken
	}
	return common.HexToAddress(raw)
}
